// Package rooms holds the static room catalogue served to the marketing
// pages. The data is fixed at build time; there is no inventory system
// behind it.
package rooms

// Highlight is a titled feature blurb shown on a room detail page.
type Highlight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Room describes a bookable room type.
type Room struct {
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Tagline     string      `json:"tagline"`
	Description string      `json:"description"`
	Size        string      `json:"size"`
	Capacity    string      `json:"capacity"`
	Beds        string      `json:"beds"`
	Price       string      `json:"price"`
	Images      []string    `json:"images"`
	Highlights  []Highlight `json:"highlights"`
	Amenities   []string    `json:"amenities"`
	Services    []string    `json:"services"`
}

var catalogue = []Room{
	{
		Slug:        "emerald-grand-suite",
		Name:        "Emerald Grand Suite",
		Tagline:     "Panoramic rainforest vistas with private plunge pool",
		Description: "An expansive sanctuary curated with Italian linens, custom teak furnishings, and floor-to-ceiling glass that frames the emerald canopy.",
		Size:        "1,600 sq ft",
		Capacity:    "Up to 3 guests",
		Beds:        "1 King Bed + Day Lounger",
		Price:       "From $899/night",
		Images:      []string{"/room1.png", "/room2.png", "/hero.png"},
		Highlights: []Highlight{
			{Title: "Private Plunge Pool", Description: "Heated basalt-lined plunge pool overlooking tropical gardens."},
			{Title: "Bespoke Bar", Description: "Curated artisan spirits and botanicals tailored to your palate."},
			{Title: "Poolside BBQ Pavilion", Description: "Dedicated grill terrace with chef service for twilight feasts."},
		},
		Amenities: []string{
			"Sunken living salon",
			"Air-conditioned master suite",
			"Poolside daybeds with cabana fans",
			"Dedicated BBQ deck",
			"Complimentary sunset canapés",
		},
		Services: []string{
			"Private chauffered transfers",
			"Daily pressed garments",
			"Custom pillow atelier",
			"Personalized island itinerary",
		},
	},
	{
		Slug:        "tropical-villa-residence",
		Name:        "Tropical Villa Residence",
		Tagline:     "Two-bedroom villa wrapped in gardens and reflection pools",
		Description: "Seamless indoor-outdoor living with a dining pavilion, dedicated butler pantry, and fragrant frangipani courtyards.",
		Size:        "2,400 sq ft",
		Capacity:    "Up to 5 guests",
		Beds:        "2 King Suites",
		Price:       "From $1,250/night",
		Images:      []string{"/room2.png", "/room1.png", "/hero.png"},
		Highlights: []Highlight{
			{Title: "Garden Pavilion", Description: "Alfresco dining with overhead fans and curated playlists."},
			{Title: "Dual Rain Showers", Description: "Twin outdoor rain showers framed by candlelit pools."},
			{Title: "Concierge Pantry", Description: "On-demand mixology, patisserie, and tailored amenities."},
		},
		Amenities: []string{
			"Private infinity lap pool",
			"Outdoor cinema setup",
			"Dedicated host team",
			"Chef-crafted breakfast in villa",
			"Bamboo bicycles for island rides",
		},
		Services: []string{
			"Custom fragrance bar",
			"In-villa fitness instructors",
			"Heliport access",
			"VIP departure lounge",
		},
	},
}

// All returns the full catalogue in display order.
func All() []Room {
	return catalogue
}

// BySlug looks up a room by its URL slug.
func BySlug(slug string) (Room, bool) {
	for _, r := range catalogue {
		if r.Slug == slug {
			return r, true
		}
	}
	return Room{}, false
}
