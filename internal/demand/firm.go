package demand

// Firm identifies the law firm sending the letter.
// Empty fields are printed as bracketed placeholders to be filled in by hand.
type Firm struct {
	Name     string   `yaml:"name"`
	Address  Address  `yaml:"address"`
	Phone    string   `yaml:"phone"`
	Fax      string   `yaml:"fax"`
	Email    string   `yaml:"email"`
	Attorney Attorney `yaml:"attorney"`
}

// Address is a postal address.
type Address struct {
	Street string `yaml:"street"`
	City   string `yaml:"city"`
	State  string `yaml:"state"`
	Zip    string `yaml:"zip"`
}

// Attorney is the signing attorney.
type Attorney struct {
	Name        string `yaml:"name"`
	BarNumber   string `yaml:"bar_number"`
	Email       string `yaml:"email"`
	DirectPhone string `yaml:"direct_phone"`
}

// DefaultFirm returns the placeholder firm used when none is configured.
func DefaultFirm() Firm {
	return Firm{
		Name: "[LAW FIRM NAME]",
		Address: Address{
			Street: "[Street Address]",
			City:   "[City]",
			State:  "NY",
			Zip:    "[ZIP]",
		},
		Phone: "[Phone]",
		Fax:   "[Fax]",
		Email: "[Email]",
		Attorney: Attorney{
			Name:        "[Attorney Name], Esq.",
			BarNumber:   "[Bar Number]",
			Email:       "[Attorney Email]",
			DirectPhone: "[Direct Phone]",
		},
	}
}

// withDefaults fills every empty field of f from DefaultFirm.
func (f Firm) withDefaults() Firm {
	d := DefaultFirm()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&f.Name, d.Name)
	fill(&f.Address.Street, d.Address.Street)
	fill(&f.Address.City, d.Address.City)
	fill(&f.Address.State, d.Address.State)
	fill(&f.Address.Zip, d.Address.Zip)
	fill(&f.Phone, d.Phone)
	fill(&f.Fax, d.Fax)
	fill(&f.Email, d.Email)
	fill(&f.Attorney.Name, d.Attorney.Name)
	fill(&f.Attorney.BarNumber, d.Attorney.BarNumber)
	fill(&f.Attorney.Email, d.Attorney.Email)
	fill(&f.Attorney.DirectPhone, d.Attorney.DirectPhone)
	return f
}
