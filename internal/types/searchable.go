package types

// Searchability classifies how (or whether) an item's price can be found on the
// retail site. The string values are the wire/storage values under the
// "searchable" profile key; Unknown is stored as null.
type Searchability string

const (
	// SearchabilityFindable means the primary price element rendered a real price.
	SearchabilityFindable Searchability = "Yes"
	// SearchabilityNotFound means the search yielded no results.
	SearchabilityNotFound Searchability = "No"
	// SearchabilityMembersOnly means the price is hidden behind a membership wall.
	SearchabilityMembersOnly Searchability = "MemberOnly"
	// SearchabilityWarehouseOnly means the item is sold in-warehouse only.
	SearchabilityWarehouseOnly Searchability = "WarehouseOnly"
	// SearchabilitySingleResult means the search landed on a one-result listing.
	SearchabilitySingleResult Searchability = "FoundOneResult"
	// SearchabilityBundlePrice means only a starting bundle price is shown.
	SearchabilityBundlePrice Searchability = "StartingBundlePrice"
	// SearchabilityUnknown means the item has never been resolved.
	SearchabilityUnknown Searchability = ""
)

// InGeneralList reports whether an item with this classification belongs on the
// general daily work list. Unknown items default to the general list so they
// get classified on their first scrape.
func (s Searchability) InGeneralList() bool {
	switch s {
	case SearchabilityFindable, SearchabilitySingleResult, SearchabilityBundlePrice, SearchabilityUnknown:
		return true
	default:
		return false
	}
}

// InMembersList reports whether an item belongs on the members-only work list.
func (s Searchability) InMembersList() bool {
	return s == SearchabilityMembersOnly
}
