package statement

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// DateLayout is the date format used by XML statements.
const DateLayout = "2006-01-02"

// ParseXML parses a document of the form
//
//	<statement>
//	  <transaction type="EXPENSE" date="2026-01-31">
//	    <amount>120.50</amount>
//	    <description>Groceries</description>
//	  </transaction>
//	</statement>
//
// When the type attribute is absent a negative amount is an expense.
func (p *Parser) ParseXML(r io.Reader) ([]models.Transaction, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.SelectElement("statement")
	if root == nil {
		return nil, fmt.Errorf("statement element not found in XML")
	}

	elements := root.SelectElements("transaction")
	txs := make([]models.Transaction, 0, len(elements))
	for i, el := range elements {
		tx, err := parseXMLTransaction(el)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, tx)
	}

	p.log.Debugf("XML statement contained %d transactions", len(txs))
	return txs, nil
}

func parseXMLTransaction(el *etree.Element) (models.Transaction, error) {
	amountEl := el.SelectElement("amount")
	if amountEl == nil {
		return models.Transaction{}, fmt.Errorf("amount element not found")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amountEl.Text()))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to parse amount: %w", err)
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(el.SelectAttrValue("date", "")))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	txnType := models.TransactionType(strings.ToUpper(strings.TrimSpace(el.SelectAttrValue("type", ""))))
	switch {
	case txnType == "" && amount.IsNegative():
		txnType = models.TransactionExpense
	case txnType == "":
		txnType = models.TransactionIncome
	case !txnType.Valid():
		return models.Transaction{}, fmt.Errorf("unknown transaction type %q", txnType)
	}

	var description string
	if d := el.SelectElement("description"); d != nil {
		description = strings.TrimSpace(d.Text())
	}

	return models.Transaction{
		Amount:      amount.Abs(),
		Type:        txnType,
		Description: description,
		Date:        date,
	}, nil
}
