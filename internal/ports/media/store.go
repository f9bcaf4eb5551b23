package media

import (
	"context"
	"time"
)

// Kind distingue los dos tipos de archivo que sube la app.
type Kind string

const (
	KindPhoto  Kind = "photo"
	KindQRCode Kind = "qr-code"
)

// UploadTicket es lo que recibe el cliente para subir un archivo:
// un PUT presignado y la URL pública resultante.
type UploadTicket struct {
	UploadURL string        `json:"upload_url"`
	PublicURL string        `json:"public_url"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// Store emite tickets de subida contra el blob store externo.
// El motor nunca toca bytes de imágenes: solo referencias públicas.
type Store interface {
	PresignUpload(ctx context.Context, kind Kind, contentType string) (UploadTicket, error)
}
