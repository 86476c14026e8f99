package detectors

import (
	"fmt"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/models"
)

// FinanceDetector flags accounts below their balance floor and unpaid
// bills due inside the due window. A bill the funding account cannot
// cover is critical; an overdue unpaid bill stays a finding because it
// can still be paid.
type FinanceDetector struct {
	billWindow time.Duration
	ttl        time.Duration
}

// NewFinanceDetector creates a finance detector from the anticipation
// configuration.
func NewFinanceDetector(cfg common.AnticipationConfig) *FinanceDetector {
	return &FinanceDetector{
		billWindow: cfg.BillDueWindow,
		ttl:        cfg.SignalTTL,
	}
}

// Name implements Detector.
func (d *FinanceDetector) Name() string {
	return "finance"
}

// Detect implements Detector.
func (d *FinanceDetector) Detect(snap *models.AnticipationContext) []models.Signal {
	var signals []models.Signal

	balances := make(map[string]float64, len(snap.Accounts))
	for _, account := range snap.Accounts {
		balances[account.ID] = account.Balance

		if account.Balance < account.MinimumBalance {
			signals = append(signals, models.Signal{
				ID:               signalID(models.SignalLowBalance, account.ID),
				Type:             models.SignalLowBalance,
				Severity:         models.SeverityUrgent,
				Domain:           accountDomain(account),
				Source:           d.Name(),
				Title:            fmt.Sprintf("Low balance: %s", account.Name),
				Context:          fmt.Sprintf("%s is at %.2f, below the %.2f floor", account.Name, account.Balance, account.MinimumBalance),
				SuggestedAction:  "Transfer funds into the account",
				RelatedEntityIDs: []string{account.ID},
				CreatedAt:        snap.Now,
				ExpiresAt:        expireAt(snap.Now.Add(d.ttl)),
			})
		}
	}

	for _, bill := range snap.Bills {
		if bill.Paid {
			continue
		}
		if until := bill.DueAt.Sub(snap.Now); until > d.billWindow {
			continue
		}

		severity := models.SeverityAttention
		context := fmt.Sprintf("%s (%.2f) is due %s", bill.Name, bill.Amount, bill.DueAt.Format("Jan 2"))
		related := []string{bill.ID}

		if bill.DueAt.Before(snap.Now) {
			severity = models.SeverityCritical
			context = fmt.Sprintf("%s (%.2f) was due %s and is unpaid", bill.Name, bill.Amount, bill.DueAt.Format("Jan 2"))
		} else if balance, ok := balances[bill.AccountID]; ok && balance < bill.Amount {
			severity = models.SeverityCritical
			context = fmt.Sprintf("%s (%.2f) is due %s but the funding account holds only %.2f", bill.Name, bill.Amount, bill.DueAt.Format("Jan 2"), balance)
			related = append(related, bill.AccountID)
		}

		signals = append(signals, models.Signal{
			ID:               signalID(models.SignalBillDue, bill.ID),
			Type:             models.SignalBillDue,
			Severity:         severity,
			Domain:           billDomain(bill),
			Source:           d.Name(),
			Title:            fmt.Sprintf("Bill due: %s", bill.Name),
			Context:          context,
			SuggestedAction:  "Schedule the payment",
			RelatedEntityIDs: related,
			CreatedAt:        snap.Now,
			ExpiresAt:        expireAt(snap.Now.Add(d.ttl)),
		})
	}

	return signals
}

func accountDomain(account models.Account) models.Domain {
	if account.Domain != "" {
		return account.Domain
	}
	return models.DomainFinance
}

func billDomain(bill models.Bill) models.Domain {
	if bill.Domain != "" {
		return bill.Domain
	}
	return models.DomainFinance
}
