package statement

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagRegex  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes formatting issues some banks produce
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRegex.ReplaceAllString(content, "$1>")
}

// ParseOFX parses bank and credit card statements from an OFX/QFX file.
// Debits (negative amounts) become expenses, credits become income.
func (p *Parser) ParseOFX(r io.Reader) ([]models.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var txs []models.Transaction
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTx := range stmt.BankTranList.Transactions {
			tx, err := convertOFXTransaction(ofxTx)
			if err != nil {
				p.log.Warnf("Skipping OFX transaction %s in account %s: %v", ofxTx.FiTID, stmt.BankAcctFrom.AcctID, err)
				continue
			}
			txs = append(txs, tx)
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, ofxTx := range stmt.BankTranList.Transactions {
			tx, err := convertOFXTransaction(ofxTx)
			if err != nil {
				p.log.Warnf("Skipping OFX transaction %s in account %s: %v", ofxTx.FiTID, stmt.CCAcctFrom.AcctID, err)
				continue
			}
			txs = append(txs, tx)
		}
	}

	p.log.Debugf("OFX statement contained %d transactions", len(txs))
	return txs, nil
}

func convertOFXTransaction(ofxTx ofxgo.Transaction) (models.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to convert amount: %w", err)
	}

	txnType := models.TransactionIncome
	if amount.IsNegative() {
		txnType = models.TransactionExpense
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		description = strings.TrimSpace(string(ofxTx.Payee.Name))
	}
	if description == "" {
		description = strings.TrimSpace(string(ofxTx.Memo))
	}

	return models.Transaction{
		Amount:      amount.Abs(),
		Type:        txnType,
		Description: description,
		Date:        ofxTx.DtPosted.Time,
	}, nil
}
