package domain

import "strings"

// CarrierIssue is the closed set of meanings extracted from carrier free text.
type CarrierIssue int

const (
	IssueNone CarrierIssue = iota
	IssueInsufficientBalance
	IssueWarehouseNotRegistered
	IssueDuplicateOrder
	IssueInternalError
	IssueEditStatusRestricted
	IssuePaymentModeConversion
	IssueNotFound
	IssueNonServiceable
	IssueEmbargo
	IssueAuthFailure
	IssueFailure
	IssueSuccess
)

var issueNames = map[CarrierIssue]string{
	IssueNone:                   "none",
	IssueInsufficientBalance:    "insufficient_balance",
	IssueWarehouseNotRegistered: "warehouse_not_registered",
	IssueDuplicateOrder:         "duplicate_order",
	IssueInternalError:          "internal_error",
	IssueEditStatusRestricted:   "edit_status_restricted",
	IssuePaymentModeConversion:  "payment_mode_conversion",
	IssueNotFound:               "not_found",
	IssueNonServiceable:         "non_serviceable",
	IssueEmbargo:                "embargo",
	IssueAuthFailure:            "auth_failure",
	IssueFailure:                "failure",
	IssueSuccess:                "success",
}

func (i CarrierIssue) String() string {
	if n, ok := issueNames[i]; ok {
		return n
	}
	return "unknown"
}

// carrierPatterns is evaluated top to bottom; the first matching rule wins.
// Specific wording comes before generic success and failure language.
var carrierPatterns = []struct {
	issue   CarrierIssue
	phrases []string
}{
	{IssueInsufficientBalance, []string{"insufficient balance", "insufficient wallet", "low balance", "wallet balance"}},
	{IssueWarehouseNotRegistered, []string{"clientwarehouse matching query does not exist", "client warehouse matching query", "pickup location not found", "warehouse not registered"}},
	{IssueDuplicateOrder, []string{"duplicate order", "order id already exists", "duplicate waybill", "already exists for this order"}},
	{IssueEditStatusRestricted, []string{"cannot be edited", "not allowed in current status", "edit not allowed", "status does not allow", "not editable"}},
	{IssuePaymentModeConversion, []string{"payment mode conversion", "cannot convert", "payment mode cannot be changed", "pt conversion"}},
	{IssueNotFound, []string{"not found", "does not exist", "no such waybill", "invalid waybill"}},
	{IssueEmbargo, []string{"embargo"}},
	{IssueNonServiceable, []string{"non serviceable", "non-serviceable", "not serviceable", "nsz"}},
	{IssueAuthFailure, []string{"unauthorized", "authentication", "invalid token", "login required", "forbidden"}},
	{IssueInternalError, []string{"internal error", "internal server error", "something went wrong"}},
	{IssueFailure, []string{"error", "fail", "unable", "invalid", "cannot", "not allowed", "rejected"}},
	{IssueSuccess, []string{"success", "cancelled", "canceled", "updated", "created", "scheduled", "ok"}},
}

// ClassifyCarrierMessage maps raw carrier text to a CarrierIssue. It is the only
// place where the workflow inspects carrier wording.
func ClassifyCarrierMessage(text string) CarrierIssue {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return IssueNone
	}
	for _, p := range carrierPatterns {
		for _, phrase := range p.phrases {
			if strings.Contains(t, phrase) {
				return p.issue
			}
		}
	}
	return IssueNone
}

// ClassifyCarrierMessages classifies each text and returns the first issue found
// among wanted, in the order of wanted.
func ClassifyCarrierMessages(texts []string, wanted ...CarrierIssue) CarrierIssue {
	found := make(map[CarrierIssue]bool, len(texts))
	for _, t := range texts {
		found[ClassifyCarrierMessage(t)] = true
	}
	for _, w := range wanted {
		if found[w] {
			return w
		}
	}
	return IssueNone
}

// IsFailureLanguage reports whether text reads as any kind of failure.
func (i CarrierIssue) IsFailureLanguage() bool {
	return i != IssueNone && i != IssueSuccess
}
