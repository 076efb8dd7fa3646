package domain

// ReproductionType is how a key gets reproduced
type ReproductionType string

const (
	ReproductionCopy   ReproductionType = "copie"
	ReproductionNumber ReproductionType = "numero"
	ReproductionAI     ReproductionType = "ia"
)

// Valid reports whether t is one of the known reproduction types
func (t ReproductionType) Valid() bool {
	switch t {
	case ReproductionCopy, ReproductionNumber, ReproductionAI:
		return true
	}
	return false
}

// CatalogEntry represents one reproducible key product.
// Name is the stable identity used for lookup and update targeting.
type CatalogEntry struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"nom"`
	Brand              string           `json:"marque"`
	Price              float64          `json:"prix"`
	WithPropertyCard   bool             `json:"cleAvecCartePropriete"`
	PriceWithoutCard   float64          `json:"prixSansCartePropriete"`
	ImageURL           string           `json:"imageUrl"`
	BlankReference     *string          `json:"referenceEbauche"`
	ReproductionType   ReproductionType `json:"typeReproduction"`
	NumberDescription  string           `json:"descriptionNumero"`
	ProductDescription string           `json:"descriptionProduit"`
	IsMasterKey        bool             `json:"estCleAPasse"`
	MasterKeyPrice     *float64         `json:"prixCleAPasse"`
	NeedsPhoto         bool             `json:"besoinPhoto"`
	NeedsKeyNumber     bool             `json:"besoinNumeroCle"`
	NeedsCardNumber    bool             `json:"besoinNumeroCarte"`
	FileFee            float64          `json:"fraisDeDossier"`
}

// CatalogEntryPatch carries a partial update; nil fields are left untouched
type CatalogEntryPatch struct {
	Name               *string           `json:"nom"`
	Brand              *string           `json:"marque"`
	Price              *float64          `json:"prix"`
	WithPropertyCard   *bool             `json:"cleAvecCartePropriete"`
	PriceWithoutCard   *float64          `json:"prixSansCartePropriete"`
	ImageURL           *string           `json:"imageUrl"`
	BlankReference     *string           `json:"referenceEbauche"`
	ReproductionType   *ReproductionType `json:"typeReproduction"`
	NumberDescription  *string           `json:"descriptionNumero"`
	ProductDescription *string           `json:"descriptionProduit"`
	IsMasterKey        *bool             `json:"estCleAPasse"`
	MasterKeyPrice     *float64          `json:"prixCleAPasse"`
	NeedsPhoto         *bool             `json:"besoinPhoto"`
	NeedsKeyNumber     *bool             `json:"besoinNumeroCle"`
	NeedsCardNumber    *bool             `json:"besoinNumeroCarte"`
	FileFee            *float64          `json:"fraisDeDossier"`
}

// Apply copies every non-nil patch field onto entry
func (p CatalogEntryPatch) Apply(entry *CatalogEntry) {
	if p.Name != nil {
		entry.Name = *p.Name
	}
	if p.Brand != nil {
		entry.Brand = *p.Brand
	}
	if p.Price != nil {
		entry.Price = *p.Price
	}
	if p.WithPropertyCard != nil {
		entry.WithPropertyCard = *p.WithPropertyCard
	}
	if p.PriceWithoutCard != nil {
		entry.PriceWithoutCard = *p.PriceWithoutCard
	}
	if p.ImageURL != nil {
		entry.ImageURL = *p.ImageURL
	}
	if p.BlankReference != nil {
		entry.BlankReference = p.BlankReference
	}
	if p.ReproductionType != nil {
		entry.ReproductionType = *p.ReproductionType
	}
	if p.NumberDescription != nil {
		entry.NumberDescription = *p.NumberDescription
	}
	if p.ProductDescription != nil {
		entry.ProductDescription = *p.ProductDescription
	}
	if p.IsMasterKey != nil {
		entry.IsMasterKey = *p.IsMasterKey
	}
	if p.MasterKeyPrice != nil {
		entry.MasterKeyPrice = p.MasterKeyPrice
	}
	if p.NeedsPhoto != nil {
		entry.NeedsPhoto = *p.NeedsPhoto
	}
	if p.NeedsKeyNumber != nil {
		entry.NeedsKeyNumber = *p.NeedsKeyNumber
	}
	if p.NeedsCardNumber != nil {
		entry.NeedsCardNumber = *p.NeedsCardNumber
	}
	if p.FileFee != nil {
		entry.FileFee = *p.FileFee
	}
}

// MatchCandidate pairs a catalog entry with its edit distance to a query
type MatchCandidate struct {
	Entry    CatalogEntry `json:"entry"`
	Distance int          `json:"distance"`
}
