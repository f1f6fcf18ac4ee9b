package healthscore

import "github.com/Dan9191/finhealth-service/internal/models"

const (
	// MaxRecommendations caps the recommendation list.
	MaxRecommendations = 4
	// RecommendationThreshold is the sub-score below which a factor gets advice.
	RecommendationThreshold = 60
)

var maintenanceAdvice = []string{
	"Diversify your investments across asset classes",
	"Review your insurance coverage at least once a year",
	"Plan long-term goals such as retirement and major purchases",
}

// Recommend returns advice for every factor scoring below the threshold, high
// priority factors first, capped at MaxRecommendations. When nothing is below
// the threshold it returns maintenance suggestions. The result is never empty.
func Recommend(factors []models.Factor) []string {
	var high, medium []string
	for _, f := range factors {
		if f.Score >= RecommendationThreshold {
			continue
		}
		spec, ok := specByName(f.Name)
		if !ok {
			continue
		}
		if spec.priority == priorityHigh {
			high = append(high, spec.advice)
		} else {
			medium = append(medium, spec.advice)
		}
	}

	out := append(high, medium...)
	if len(out) == 0 {
		out = append([]string(nil), maintenanceAdvice...)
	}
	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}
