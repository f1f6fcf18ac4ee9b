// Package statement turns bank statement files into transactions.
package statement

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedFormat is returned for files that are neither XML nor OFX/QFX.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// Parser reads statement files in the supported formats
type Parser struct {
	log *logrus.Logger
}

// NewParser initializes a new statement parser
func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// Parse picks a format by file extension and returns the parsed transactions.
// Transactions carry a positive amount and no user id.
func (p *Parser) Parse(filename string, r io.Reader) ([]models.Transaction, error) {
	var (
		txs []models.Transaction
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xml":
		txs, err = p.ParseXML(r)
	case ".ofx", ".qfx":
		txs, err = p.ParseOFX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"file":         filename,
		"transactions": len(txs),
	}).Info("Parsed statement")
	return txs, nil
}
