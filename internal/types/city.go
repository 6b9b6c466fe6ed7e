package types

import "sort"

var (
	hotelActivities      = []string{"hotel", "stay", "accommodation"}
	restaurantActivities = []string{"restaurant", "food", "cuisine"}
)

// ActivityVocabulary holds the distinct lowercase types and categories seen
// for one city.
type ActivityVocabulary struct {
	Types      map[string]struct{}
	Categories map[string]struct{}
}

func NewActivityVocabulary() ActivityVocabulary {
	return ActivityVocabulary{
		Types:      make(map[string]struct{}),
		Categories: make(map[string]struct{}),
	}
}

// Allowed returns the activity words a user may pick: every category plus
// the hotel and restaurant pseudo-categories when those types exist.
func (v ActivityVocabulary) Allowed() map[string]struct{} {
	allowed := make(map[string]struct{}, len(v.Categories)+6)
	if _, ok := v.Types[POITypeHotel]; ok {
		for _, a := range hotelActivities {
			allowed[a] = struct{}{}
		}
	}
	if _, ok := v.Types[POITypeRestaurant]; ok {
		for _, a := range restaurantActivities {
			allowed[a] = struct{}{}
		}
	}
	for c := range v.Categories {
		allowed[c] = struct{}{}
	}
	return allowed
}

// SortedAllowed is Allowed as a sorted slice, used for listings.
func (v ActivityVocabulary) SortedAllowed() []string {
	return SortedKeys(v.Allowed())
}

// IsHotelActivity reports whether the word selects hotels.
func IsHotelActivity(word string) bool {
	return contains(hotelActivities, word)
}

// IsRestaurantActivity reports whether the word selects restaurants.
func IsRestaurantActivity(word string) bool {
	return contains(restaurantActivities, word)
}

func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, word string) bool {
	for _, w := range list {
		if w == word {
			return true
		}
	}
	return false
}
