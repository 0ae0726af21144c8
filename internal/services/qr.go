package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/skip2/go-qrcode"
)

const (
	qrTicketPrefix    = "ticket:"
	qrSignatureMarker = ";signature:"
	qrImageSize       = 256
)

// QRSigner produces and verifies the payload encoded in ticket QR codes:
// ticket:<ticketId>;signature:<hex hmac>.
type QRSigner struct {
	secret []byte
}

func NewQRSigner(secret string) *QRSigner {
	return &QRSigner{secret: []byte(secret)}
}

func (q *QRSigner) signature(ticketID string) string {
	h := hmac.New(sha256.New, q.secret)
	h.Write([]byte(ticketID))
	return hex.EncodeToString(h.Sum(nil))
}

func (q *QRSigner) Payload(ticketID string) string {
	return qrTicketPrefix + ticketID + qrSignatureMarker + q.signature(ticketID)
}

// Parse returns the ticket id carried by a payload after checking its
// signature. Ticket ids are opaque, so the last signature marker wins.
func (q *QRSigner) Parse(payload string) (string, error) {
	if !strings.HasPrefix(payload, qrTicketPrefix) {
		return "", fmt.Errorf("%w: invalid QR data format", models.ErrInvalidInput)
	}
	idx := strings.LastIndex(payload, qrSignatureMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: invalid QR data format", models.ErrInvalidInput)
	}

	ticketID := payload[len(qrTicketPrefix):idx]
	signature := payload[idx+len(qrSignatureMarker):]
	if ticketID == "" {
		return "", fmt.Errorf("%w: invalid QR data format", models.ErrInvalidInput)
	}

	expected := q.signature(ticketID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", models.ErrInvalidSignature
	}
	return ticketID, nil
}

// PNG renders the signed payload as a QR image.
func (q *QRSigner) PNG(ticketID string) ([]byte, error) {
	return qrcode.Encode(q.Payload(ticketID), qrcode.Medium, qrImageSize)
}
