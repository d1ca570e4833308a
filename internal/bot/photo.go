package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/t1ery/ParrainageBot/internal/wizard"
)

// errNoPhoto - в сообщении нет ни фотографии, ни файла
var errNoPhoto = errors.New("message has no photo")

// fetchPhoto скачивает фотографию из сообщения. Фото берётся в наибольшем
// размере, файл-документ - как есть, с его именем и типом.
func (b *ParrainageBot) fetchPhoto(ctx context.Context, msg *tgbotapi.Message) (wizard.PhotoUpload, error) {
	var (
		fileID      string
		name        string
		contentType string
		size        int
	)

	switch {
	case msg.Photo != nil && len(*msg.Photo) > 0:
		photos := *msg.Photo
		largest := photos[len(photos)-1]
		fileID, size = largest.FileID, largest.FileSize
		name, contentType = "photo.jpg", "image/jpeg"
	case msg.Document != nil:
		fileID, size = msg.Document.FileID, msg.Document.FileSize
		name, contentType = msg.Document.FileName, msg.Document.MimeType
	default:
		return wizard.PhotoUpload{}, errNoPhoto
	}

	policy := b.controller.PhotoPolicy()
	if size > 0 {
		if err := policy.CheckSize(int64(size)); err != nil {
			return wizard.PhotoUpload{}, err
		}
	}

	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return wizard.PhotoUpload{}, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return wizard.PhotoUpload{}, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return wizard.PhotoUpload{}, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wizard.PhotoUpload{}, fmt.Errorf("download file: HTTP %d", resp.StatusCode)
	}

	// Читаем на байт больше предела, чтобы заметить слишком большой файл
	data, err := io.ReadAll(io.LimitReader(resp.Body, policy.Limit()+1))
	if err != nil {
		return wizard.PhotoUpload{}, fmt.Errorf("read file: %w", err)
	}
	if err := policy.CheckSize(int64(len(data))); err != nil {
		return wizard.PhotoUpload{}, err
	}

	return wizard.PhotoUpload{Name: name, ContentType: contentType, Data: data}, nil
}
