package repository

import (
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/internal/domain/species"
)

type treeText struct {
	description  string
	lifespan     string
	growthNeeds  string
	growthPeriod string
	sourceLink   string
}

var catalogueText = map[string]treeText{
	"narra": {
		description:  "The national tree of the Philippines, a large deciduous hardwood with fragrant yellow flowers and prized reddish timber.",
		lifespan:     "Several hundred years",
		growthNeeds:  "Full sun, well-drained soil, tolerates drought once established",
		growthPeriod: "Fast growing when young; reaches maturity in about 20 to 30 years",
		sourceLink:   "https://en.wikipedia.org/wiki/Pterocarpus_indicus",
	},
	"banaba": {
		description:  "A medium-sized flowering tree known for showy pink to purple blooms; its leaves are used in traditional medicine.",
		lifespan:     "50 to 100 years",
		growthNeeds:  "Full sun, moist fertile soil, tolerates periodic flooding",
		growthPeriod: "Flowers within 3 to 5 years; matures in about 15 years",
		sourceLink:   "https://en.wikipedia.org/wiki/Lagerstroemia_speciosa",
	},
	"ipil": {
		description:  "A coastal and lowland hardwood with very durable, termite-resistant timber, now rare in the wild.",
		lifespan:     "Over 100 years",
		growthNeeds:  "Full sun, sandy or loamy soil, tolerates salt spray",
		growthPeriod: "Slow growing; timber harvestable after 75 to 80 years",
		sourceLink:   "https://en.wikipedia.org/wiki/Intsia_bijuga",
	},
	"kamagong": {
		description:  "An endemic ebony tree with dense black heartwood and edible velvety fruit called mabolo.",
		lifespan:     "Over 100 years",
		growthNeeds:  "Partial to full sun, deep well-drained soil",
		growthPeriod: "Slow growing; fruits after 6 to 7 years",
		sourceLink:   "https://en.wikipedia.org/wiki/Diospyros_blancoi",
	},
	"talisay": {
		description:  "A spreading beach tree with tiered branches and large leaves that turn red before falling; seeds are edible.",
		lifespan:     "60 to 100 years",
		growthNeeds:  "Full sun, sandy coastal soil, salt tolerant",
		growthPeriod: "Fast growing; fruits within 3 years",
		sourceLink:   "https://en.wikipedia.org/wiki/Terminalia_catappa",
	},
}

// catalogue returns the seed rows for the native species table.
func catalogue() []model.Tree {
	all := species.All()
	out := make([]model.Tree, 0, len(all))
	for _, s := range all {
		txt := catalogueText[s.Name]
		out = append(out, model.Tree{
			TreeID:         s.ID,
			TreeName:       s.Name,
			ScientificName: s.ScientificName,
			Description:    txt.description,
			Lifespan:       txt.lifespan,
			GrowthNeeds:    txt.growthNeeds,
			GrowthPeriod:   txt.growthPeriod,
			SourceLink:     txt.sourceLink,
		})
	}
	return out
}
