package model

// Profile is the normalized client profile.
type Profile struct {
	ID          string       `json:"id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	BVNVerified bool         `json:"bvn_verified"`
	BankAccount *BankAccount `json:"bank_account,omitempty"`
}

// BankAccount is a linked payout destination.
type BankAccount struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// WireProfile mirrors the loose upstream profile payload.
type WireProfile struct {
	ID          any    `json:"id"`
	FirstName   string `json:"first_name"`
	Surname     string `json:"surname"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PhoneNumber string `json:"phone_number"`
	BVNVerified bool   `json:"bvn_verified"`
	Bank        *struct {
		Code          string `json:"code"`
		BankCode      string `json:"bank_code"`
		Name          string `json:"name"`
		BankName      string `json:"bank_name"`
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	} `json:"bank_account"`
}

// Normalize maps the wire profile into the strict internal form.
func (w *WireProfile) Normalize() Profile {
	p := Profile{
		ID:          Stringify(w.ID),
		FirstName:   w.FirstName,
		LastName:    firstNonEmpty(w.LastName, w.Surname),
		Email:       w.Email,
		Phone:       firstNonEmpty(w.Phone, w.PhoneNumber),
		BVNVerified: w.BVNVerified,
	}
	if w.Bank != nil {
		p.BankAccount = &BankAccount{
			BankCode:      firstNonEmpty(w.Bank.BankCode, w.Bank.Code),
			BankName:      firstNonEmpty(w.Bank.BankName, w.Bank.Name),
			AccountNumber: w.Bank.AccountNumber,
			AccountName:   w.Bank.AccountName,
		}
	}
	return p
}
