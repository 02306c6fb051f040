package services

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/eventpass/api/functions/gateway/interfaces"
)

const qrCodeSizePx = 512

type QRCodeService struct{}

func NewQRCodeService() interfaces.QRCodeServiceInterface {
	return &QRCodeService{}
}

// GeneratePNG renders the ticket check-in payload as a QR PNG. Medium
// recovery keeps the code scannable from a phone screen.
func (s *QRCodeService) GeneratePNG(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content must not be empty")
	}

	png, err := qrcode.Encode(content, qrcode.Medium, qrCodeSizePx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return png, nil
}

type MockQRCodeService struct {
	GeneratePNGFunc func(content string) ([]byte, error)
}

func (m *MockQRCodeService) GeneratePNG(content string) ([]byte, error) {
	return m.GeneratePNGFunc(content)
}
