package domain

// CatalogPage is one snapshot of the gift catalog.
//
// Hash is the platform's change-detection token: sending it back on the
// next fetch lets the platform answer "not modified" instead of the full
// list. Zero means no prior snapshot.
type CatalogPage struct {
	Hash  int64
	Gifts []Gift
}
