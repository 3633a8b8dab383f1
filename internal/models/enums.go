package models

type AccountType string

const (
	AccountSavings        AccountType = "SAVINGS"
	AccountCurrent        AccountType = "CURRENT"
	AccountFixedDeposit   AccountType = "FIXED_DEPOSIT"
	AccountLoanPayable    AccountType = "LOAN_PAYABLE"
	AccountLoanReceivable AccountType = "LOAN_RECEIVABLE"
	AccountInvestment     AccountType = "INVESTMENT"
	AccountCreditCard     AccountType = "CREDIT_CARD"
	AccountDebitCard      AccountType = "DEBIT_CARD"
	AccountAsset          AccountType = "ASSET"
	AccountLiability      AccountType = "LIABILITY"
)

var AccountTypes = []AccountType{
	AccountSavings, AccountCurrent, AccountFixedDeposit, AccountLoanPayable, AccountLoanReceivable,
	AccountInvestment, AccountCreditCard, AccountDebitCard, AccountAsset, AccountLiability,
}

func (t AccountType) IsValid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

type TransactionType string

const (
	TxIncome         TransactionType = "INCOME"
	TxExpense        TransactionType = "EXPENSE"
	TxTransfer       TransactionType = "TRANSFER"
	TxSalary         TransactionType = "SALARY"
	TxBill           TransactionType = "BILL"
	TxTax            TransactionType = "TAX"
	TxLoanRepayment  TransactionType = "LOAN_REPAYMENT"
	TxInvestmentOut  TransactionType = "INVESTMENT_OUT"
	TxDividend       TransactionType = "DIVIDEND"
	TxBonus          TransactionType = "BONUS"
	TxGift           TransactionType = "GIFT"
	TxSubscription   TransactionType = "SUBSCRIPTION"
	TxGroceries      TransactionType = "GROCERIES"
	TxShopping       TransactionType = "SHOPPING"
	TxRental         TransactionType = "RENTAL"
	TxInterestEarned TransactionType = "INTEREST_EARNED"
	TxOther          TransactionType = "OTHER"
)

var TransactionTypes = []TransactionType{
	TxIncome, TxExpense, TxTransfer, TxSalary, TxBill, TxTax, TxLoanRepayment, TxInvestmentOut,
	TxDividend, TxBonus, TxGift, TxSubscription, TxGroceries, TxShopping, TxRental, TxInterestEarned, TxOther,
}

func (t TransactionType) IsValid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

type RecurrencePeriod string

const (
	RecurDaily   RecurrencePeriod = "DAILY"
	RecurWeekly  RecurrencePeriod = "WEEKLY"
	RecurMonthly RecurrencePeriod = "MONTHLY"
	RecurYearly  RecurrencePeriod = "YEARLY"
)

func (p RecurrencePeriod) IsValid() bool {
	switch p {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurYearly:
		return true
	}
	return false
}

type InterestFrequency string

const (
	InterestMonthly  InterestFrequency = "MONTHLY"
	InterestAnnually InterestFrequency = "ANNUALLY"
)

func (f InterestFrequency) IsValid() bool {
	return f == InterestMonthly || f == InterestAnnually
}

type CardNetwork string

const (
	CardVisa       CardNetwork = "VISA"
	CardMastercard CardNetwork = "MASTERCARD"
	CardAmex       CardNetwork = "AMEX"
	CardUnknown    CardNetwork = "UNKNOWN"
)

func (n CardNetwork) IsValid() bool {
	switch n {
	case CardVisa, CardMastercard, CardAmex, CardUnknown:
		return true
	}
	return false
}

type ReceivableStatus string

const (
	ReceivablePending  ReceivableStatus = "PENDING"
	ReceivableReceived ReceivableStatus = "RECEIVED"
)

type DocumentType string

const (
	DocumentPDF   DocumentType = "pdf"
	DocumentImage DocumentType = "image"
)

func (t DocumentType) IsValid() bool {
	return t == DocumentPDF || t == DocumentImage
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// NetworkForCard infers the network from the leading digit.
func NetworkForCard(number string) CardNetwork {
	if number == "" {
		return CardUnknown
	}
	switch number[0] {
	case '4':
		return CardVisa
	case '5':
		return CardMastercard
	case '3':
		return CardAmex
	}
	return CardUnknown
}
