package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/internal/registration"
)

// Значения по умолчанию для API
const (
	DefaultBaseURL    = "http://localhost:8080/api"
	DefaultSubmitPath = "/submissions"
	DefaultTimeout    = 10 * time.Second
)

// GenericErrorMessage показывается, когда ошибка не несёт текста от API
const GenericErrorMessage = "Erreur lors de l'envoi. Veuillez réessayer."

// Максимальный размер ответа, который мы читаем
const maxResponseSize = 1 << 20

// Config - настройки клиента API
type Config struct {
	BaseURL    string
	SubmitPath string
	Timeout    time.Duration
}

// Receipt - ответ API на успешную отправку
type Receipt struct {
	ID        string          `json:"id,omitempty"`
	Message   string          `json:"message,omitempty"`
	RequestID string          `json:"-"`
	Raw       json.RawMessage `json:"-"`
}

// APIError - ответ API с кодом не 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("submission rejected: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("submission rejected: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client отправляет анкеты в API одним multipart-запросом
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// NewClient создаёт клиента API
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = DefaultSubmitPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.SubmitPath, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log.With().Str("component", "submission").Logger(),
	}
}

// Submit отправляет анкету. Повторов нет: каждая попытка - действие пользователя.
func (c *Client) Submit(ctx context.Context, s registration.Submission) (*Receipt, error) {
	body, contentType, err := encode(s)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug().Str("method", req.Method).Str("url", c.endpoint).Str("request_id", requestID).Msg("Отправка анкеты")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Str("request_id", requestID).Msg("Ответ API")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	receipt := &Receipt{RequestID: requestID}
	if len(bytes.TrimSpace(data)) > 0 {
		receipt.Raw = json.RawMessage(data)
		// Тело ответа не обязано быть объектом
		_ = json.Unmarshal(data, receipt)
	}
	return receipt, nil
}

// Message переводит ошибку отправки в текст для пользователя
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericErrorMessage
}

// encode собирает тело multipart/form-data: фотография и все текстовые поля
func encode(s registration.Submission) (io.Reader, string, error) {
	fields, err := s.Fields()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		registration.FieldPhoto, quoteEscaper.Replace(s.Photo.Name)))
	h.Set("Content-Type", s.Photo.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(s.Photo.Data); err != nil {
		return nil, "", fmt.Errorf("write photo: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// errorMessage достаёт текст ошибки из тела ответа API
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
