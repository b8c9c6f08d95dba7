package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/finolhu/kinship-engine/pkg/config"
	"github.com/finolhu/kinship-engine/pkg/models"
)

// Pair scoring weights for the combinatorial parent selection. A pair is
// accepted only when its score reaches pairAcceptScore; a prospective
// child at or above a parent's age disqualifies the pair outright.
const (
	scoreMeanGapPlausible = 10 // mean parent-child gap in [15,40] years
	scoreSpouseGapClose   = 5  // parents within 10 years of each other
	scoreChildCountSane   = 3  // at most 10 resulting children
	pairAcceptScore       = 5
	pairCandidatePoolSize = 4 // combinations drawn from the N oldest

	meanGapMin     = 15
	meanGapMax     = 40
	spouseGapClose = 10
	maxChildCount  = 10
)

// NuclearFamily is the classified result of one address cluster: a parent
// pair (or single parent), their direct children, excluded elders, and
// individuals that could not be placed. No relationship edges yet.
type NuclearFamily struct {
	Parents  []*Individual
	Children []*Individual
	// Outliers are far enough above the cluster median age that they are
	// likely grandparents or unrelated co-residents. They stay members of
	// the group but never receive automatic edges.
	Outliers []*Individual
	// Unclassified holds individuals excluded from the nuclear unit: the
	// whole cluster when fewer than two ages resolve, or individuals whose
	// age gap to a selected parent is implausible.
	Unclassified []*Individual
	// Degraded is true when too few ages resolved to infer any structure.
	Degraded bool
}

// NuclearFamilyBuilder selects a parent pair and classifies the remaining
// individuals of an address cluster as children or exclusions.
type NuclearFamilyBuilder struct {
	outlierAgeGap     int
	minParentChildGap int
	maxSpouseAgeGap   int
	logger            *zap.Logger
}

// NewNuclearFamilyBuilder creates a builder with the given tuning. Zero
// values select the canonical heuristics.
func NewNuclearFamilyBuilder(cfg config.InferenceConfig, logger *zap.Logger) *NuclearFamilyBuilder {
	if cfg.OutlierAgeGap <= 0 {
		cfg.OutlierAgeGap = 30
	}
	if cfg.MinParentChildGap <= 0 {
		cfg.MinParentChildGap = 15
	}
	if cfg.MaxSpouseAgeGap <= 0 {
		cfg.MaxSpouseAgeGap = 20
	}
	return &NuclearFamilyBuilder{
		outlierAgeGap:     cfg.OutlierAgeGap,
		minParentChildGap: cfg.MinParentChildGap,
		maxSpouseAgeGap:   cfg.MaxSpouseAgeGap,
		logger:            logger.Named("nuclear-family"),
	}
}

// Build classifies the deduplicated individuals of one address cluster.
func (b *NuclearFamilyBuilder) Build(individuals []*Individual) *NuclearFamily {
	var withAge, withoutAge []*Individual
	for _, ind := range individuals {
		if ind.HasAge {
			withAge = append(withAge, ind)
		} else {
			withoutAge = append(withoutAge, ind)
		}
	}

	if len(withAge) < 2 {
		b.logger.Info("too few resolvable ages, returning unclassified members",
			zap.Int("total", len(individuals)),
			zap.Int("with_age", len(withAge)))
		return &NuclearFamily{
			Unclassified: individuals,
			Degraded:     true,
		}
	}

	// Oldest first; stable tie-break on PID keeps rebuilds deterministic.
	sort.SliceStable(withAge, func(i, j int) bool {
		if withAge[i].Age != withAge[j].Age {
			return withAge[i].Age > withAge[j].Age
		}
		return withAge[i].Person.PID < withAge[j].Person.PID
	})

	median := medianAge(withAge)
	var candidates, outliers []*Individual
	for _, ind := range withAge {
		if float64(ind.Age) > median+float64(b.outlierAgeGap) {
			outliers = append(outliers, ind)
			b.logger.Info("excluded outlier from nuclear-family candidacy",
				zap.String("pid", ind.Person.PID),
				zap.Int("age", ind.Age),
				zap.Float64("median_age", median))
			continue
		}
		candidates = append(candidates, ind)
	}

	family := &NuclearFamily{Outliers: outliers}

	parents := b.selectParents(candidates)
	family.Parents = parents
	parentSet := make(map[*Individual]bool, len(parents))
	for _, p := range parents {
		parentSet[p] = true
	}

	for _, ind := range candidates {
		if parentSet[ind] {
			continue
		}
		if b.plausibleChild(ind, parents) {
			family.Children = append(family.Children, ind)
			continue
		}
		b.logger.Info("rejected child candidate for implausible age gap",
			zap.String("pid", ind.Person.PID),
			zap.Int("age", ind.Age),
			zap.Int("min_gap_years", b.minParentChildGap))
		family.Unclassified = append(family.Unclassified, ind)
	}

	// Individuals without a resolvable age default to children; their
	// generational position cannot be verified, so downstream edges carry
	// reduced confidence pending manual validation.
	for _, ind := range withoutAge {
		b.logger.Info("appended ageless individual as unverified child",
			zap.String("pid", ind.Person.PID))
		family.Children = append(family.Children, ind)
	}

	return family
}

// plausibleChild reports whether ind is at least the minimum gap younger
// than every selected parent.
func (b *NuclearFamilyBuilder) plausibleChild(ind *Individual, parents []*Individual) bool {
	if len(parents) == 0 {
		return false
	}
	for _, p := range parents {
		if p.Age-ind.Age < b.minParentChildGap {
			return false
		}
	}
	return true
}

// selectParents picks the parent pair (or single parent) from the
// non-outlier age-resolved candidates, oldest first. The scored
// combinatorial selection runs first; when no combination reaches the
// acceptance score the simpler gender-based rule applies, then the
// oldest-overall fallback.
func (b *NuclearFamilyBuilder) selectParents(candidates []*Individual) []*Individual {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		b.logger.Info("single parent selected",
			zap.String("pid", candidates[0].Person.PID),
			zap.Int("age", candidates[0].Age))
		return candidates[:1]
	}

	if pair := b.selectScoredPair(candidates); pair != nil {
		return pair
	}
	if pair := b.selectByGender(candidates); pair != nil {
		return pair
	}

	b.logger.Info("parent pair fallback to two oldest",
		zap.String("pid1", candidates[0].Person.PID),
		zap.String("pid2", candidates[1].Person.PID))
	return candidates[:2]
}

// selectScoredPair evaluates parent-pair combinations among the oldest
// candidates and returns the best pair when it reaches the acceptance
// score.
func (b *NuclearFamilyBuilder) selectScoredPair(candidates []*Individual) []*Individual {
	pool := candidates
	if len(pool) > pairCandidatePoolSize {
		pool = pool[:pairCandidatePoolSize]
	}

	var best []*Individual
	bestScore := pairAcceptScore - 1
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			score, ok := b.scorePair(pool[i], pool[j], candidates)
			if ok && score > bestScore {
				best = []*Individual{pool[i], pool[j]}
				bestScore = score
			}
		}
	}

	if best != nil {
		b.logger.Info("parent pair chosen by combination scoring",
			zap.String("pid1", best[0].Person.PID),
			zap.String("pid2", best[1].Person.PID),
			zap.Int("score", bestScore))
	}
	return best
}

// scorePair scores (p1, p2) as a prospective parent pair against the
// children that selection would imply. ok is false when any prospective
// child is as old as a parent, which disqualifies the pair.
func (b *NuclearFamilyBuilder) scorePair(p1, p2 *Individual, candidates []*Individual) (int, bool) {
	var children []*Individual
	for _, ind := range candidates {
		if ind == p1 || ind == p2 {
			continue
		}
		if ind.Age >= p1.Age || ind.Age >= p2.Age {
			return 0, false
		}
		children = append(children, ind)
	}

	score := 0
	if len(children) > 0 {
		gapSum := 0
		for _, c := range children {
			gapSum += (p1.Age - c.Age) + (p2.Age - c.Age)
		}
		meanGap := float64(gapSum) / float64(2*len(children))
		if meanGap >= meanGapMin && meanGap <= meanGapMax {
			score += scoreMeanGapPlausible
		}
	}
	if absInt(p1.Age-p2.Age) <= spouseGapClose {
		score += scoreSpouseGapClose
	}
	if len(children) <= maxChildCount {
		score += scoreChildCountSane
	}
	return score, true
}

// selectByGender pairs the oldest male with the oldest female when both
// exist and their ages are close enough to be plausible spouses.
func (b *NuclearFamilyBuilder) selectByGender(candidates []*Individual) []*Individual {
	var oldestMale, oldestFemale *Individual
	for _, ind := range candidates {
		switch ind.Person.GenderOrUnknown() {
		case models.GenderMale:
			if oldestMale == nil {
				oldestMale = ind
			}
		case models.GenderFemale:
			if oldestFemale == nil {
				oldestFemale = ind
			}
		}
	}
	if oldestMale == nil || oldestFemale == nil {
		return nil
	}
	if absInt(oldestMale.Age-oldestFemale.Age) > b.maxSpouseAgeGap {
		return nil
	}

	b.logger.Info("parent pair chosen by gender rule",
		zap.String("male_pid", oldestMale.Person.PID),
		zap.String("female_pid", oldestFemale.Person.PID))
	// Keep deterministic ordering: oldest of the pair first.
	if oldestFemale.Age > oldestMale.Age {
		return []*Individual{oldestFemale, oldestMale}
	}
	return []*Individual{oldestMale, oldestFemale}
}

// medianAge computes the median over an oldest-first sorted slice.
func medianAge(sorted []*Individual) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sorted[n/2].Age)
	}
	return float64(sorted[n/2-1].Age+sorted[n/2].Age) / 2
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
