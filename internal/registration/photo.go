package registration

import (
	"fmt"
	"net/http"
	"strings"
)

const FieldPhoto = "photo"

// MaxPhotoSize - предел размера фотографии по умолчанию (10 Мо)
const MaxPhotoSize = 10 * 1024 * 1024

// AcceptedImageTypes - разрешённые типы фотографии по умолчанию
var AcceptedImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// Photo - шаг 4: фотография профиля
type Photo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Size возвращает размер файла в байтах
func (p Photo) Size() int64 {
	return int64(len(p.Data))
}

// PhotoPolicy - ограничения на загружаемую фотографию
type PhotoPolicy struct {
	MaxSize int64
	Types   []string
}

// DefaultPhotoPolicy - 10 Мо, JPG/JPEG/PNG
func DefaultPhotoPolicy() PhotoPolicy {
	return PhotoPolicy{MaxSize: MaxPhotoSize, Types: AcceptedImageTypes}
}

// NewPhoto проверяет файл по политике по умолчанию
func NewPhoto(name, contentType string, data []byte) (Photo, error) {
	return DefaultPhotoPolicy().NewPhoto(name, contentType, data)
}

// NewPhoto собирает и проверяет фотографию. Если тип не передан, он определяется по содержимому.
func (pp PhotoPolicy) NewPhoto(name, contentType string, data []byte) (Photo, error) {
	p := Photo{
		Name:        strings.TrimSpace(name),
		ContentType: strings.ToLower(strings.TrimSpace(contentType)),
		Data:        data,
	}
	if p.ContentType == "" && len(data) > 0 {
		p.ContentType = sniffType(data)
	}
	if p.Name == "" {
		p.Name = "photo" + extensionFor(p.ContentType)
	}
	if err := pp.Validate(p); err != nil {
		return Photo{}, err
	}
	return p, nil
}

// Validate проверяет наличие, размер и тип фотографии
func (pp PhotoPolicy) Validate(p Photo) error {
	if len(p.Data) == 0 {
		return FieldErrors{{Field: FieldPhoto, Rule: "required", Message: messageFor(FieldPhoto, "required")}}
	}

	if err := pp.CheckSize(p.Size()); err != nil {
		return err
	}

	types := pp.Types
	if len(types) == 0 {
		types = AcceptedImageTypes
	}
	typeErr := FieldErrors{{Field: FieldPhoto, Rule: "type", Message: messageFor(FieldPhoto, "type")}}
	if err := validate.Var(p.ContentType, "oneof="+strings.Join(types, " ")); err != nil {
		return typeErr
	}
	// Заявленный тип должен совпадать с содержимым
	if !sameImageType(p.ContentType, sniffType(p.Data)) {
		return typeErr
	}
	return nil
}

// CheckSize проверяет только размер файла. Годится до скачивания, когда размер уже известен.
func (pp PhotoPolicy) CheckSize(size int64) error {
	maxSize := pp.Limit()
	if err := validate.Var(size, fmt.Sprintf("lte=%d", maxSize)); err != nil {
		msg := fmt.Sprintf(messages[FieldPhoto]["size"], maxSize/(1024*1024))
		return FieldErrors{{Field: FieldPhoto, Rule: "size", Message: msg}}
	}
	return nil
}

// Limit возвращает предел размера в байтах
func (pp PhotoPolicy) Limit() int64 {
	if pp.MaxSize <= 0 {
		return MaxPhotoSize
	}
	return pp.MaxSize
}

func sniffType(data []byte) string {
	return http.DetectContentType(data)
}

func sameImageType(declared, sniffed string) bool {
	norm := func(t string) string {
		if t == "image/jpg" {
			return "image/jpeg"
		}
		return t
	}
	return norm(declared) == norm(sniffed)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	return ""
}
