package main

import (
	"context"
	"sort"
	"strings"

	"Tether/pkg/types"
)

// App resolution scores installed launchable apps against a package id or
// free-text name. The tie-break order is the contract: exact package >
// exact name > normalized exact > normalized prefix > normalized substring
// > token overlap. Natural-language tool calls rarely supply exact package
// identifiers, so unresolved queries degrade to scored suggestions instead
// of a bare failure.

const (
	scoreExactPackage = 1000
	scoreExactName    = 900
	scoreNormExact    = 800
	scorePrefixBase   = 600
	// The prefix floor stays above the best possible substring score so
	// the prefix tier ranks over the substring tier across candidates.
	scorePrefixFloor   = 450
	scoreSubstringBase = 400
	scoreSubstrFloor   = 150
	scoreNameToken     = 80
	scorePackageToken  = 60

	maxSuggestions = 5
)

// ResolveApp resolves a query against the installed launchable apps. Apps
// are enumerated fresh per call; the registry may cache labels but the core
// never caches the resolution.
func (a *App) ResolveApp(ctx context.Context, query string) (types.AppResolution, error) {
	apps, err := a.bridge.ListLaunchableApps(ctx)
	if err != nil {
		return types.AppResolution{Query: query}, err
	}
	return resolveApp(query, apps), nil
}

func resolveApp(query string, apps []types.LaunchableApp) types.AppResolution {
	res := types.AppResolution{Query: query}
	query = strings.TrimSpace(query)
	if query == "" || len(apps) == 0 {
		return res
	}

	scored := make([]types.AppMatch, 0, len(apps))
	for _, app := range apps {
		if score := scoreApp(query, app); score > 0 {
			scored = append(scored, types.AppMatch{
				PackageName: app.PackageName,
				AppName:     app.AppName,
				Score:       score,
			})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].PackageName < scored[j].PackageName
	})

	// A package-shaped query only resolves on an exact package hit;
	// anything weaker becomes a suggestion so the caller sees what was
	// almost meant instead of launching a lookalike.
	if isPackageQuery(query) {
		if len(scored) > 0 && scored[0].Score == scoreExactPackage {
			res.Match = &scored[0]
			return res
		}
		res.Suggestions = topSuggestions(scored)
		return res
	}

	if len(scored) > 0 {
		res.Match = &scored[0]
		return res
	}
	res.Suggestions = topSuggestions(scored)
	return res
}

func topSuggestions(scored []types.AppMatch) []types.AppMatch {
	if len(scored) > maxSuggestions {
		return scored[:maxSuggestions]
	}
	return scored
}

func scoreApp(query string, app types.LaunchableApp) int {
	if query == app.PackageName {
		return scoreExactPackage
	}
	if strings.EqualFold(query, app.AppName) {
		return scoreExactName
	}

	nq := normalizeAppName(query)
	nn := normalizeAppName(app.AppName)
	if nq != "" && nq == nn {
		return scoreNormExact
	}
	if nq != "" && strings.HasPrefix(nn, nq) {
		score := scorePrefixBase - 4*(len(nn)-len(nq))
		if score < scorePrefixFloor {
			score = scorePrefixFloor
		}
		return score
	}
	if nq != "" {
		if idx := strings.Index(nn, nq); idx >= 0 {
			score := scoreSubstringBase - 5*idx
			if score < scoreSubstrFloor {
				score = scoreSubstrFloor
			}
			return score
		}
	}

	nameTokens := tokenSet(app.AppName)
	pkgTokens := tokenSet(app.PackageName)
	score := 0
	for _, token := range significantTokens(query) {
		if nameTokens[token] {
			score += scoreNameToken
		} else if pkgTokens[token] {
			score += scorePackageToken
		}
	}
	return score
}

// isPackageQuery treats dotted, space-free queries as package identifiers.
func isPackageQuery(query string) bool {
	return strings.Contains(query, ".") && !strings.ContainsAny(query, " \t")
}

func normalizeAppName(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		set[tok] = true
	}
	return set
}
