package heuristic

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// outcome accumulates the bounded partial scores of one criterion.
type outcome struct {
	points      int
	fired       []string
	suggestions []string
}

func (o *outcome) add(points int, note string) {
	o.points += points
	if note != "" {
		o.fired = append(o.fired, note)
	}
}

func (o *outcome) suggest(suggestion string) {
	o.suggestions = append(o.suggestions, suggestion)
}

type rule struct {
	label string
	score func(d *document) outcome
}

type trustMarker struct {
	name    string
	pattern *regexp.Regexp
}

var trustMarkers = []trustMarker{
	{"trusted by", regexp.MustCompile(`\btrusted by\b`)},
	{"testimonials", regexp.MustCompile(`\btestimonials?\b`)},
	{"reviews", regexp.MustCompile(`\breviews?\b|\brated\b|★`)},
	{"privacy", regexp.MustCompile(`\bprivacy\b`)},
	{"security", regexp.MustCompile(`\bsecure\b|\bssl\b|\bencrypt(ed|ion)\b`)},
	{"certification", regexp.MustCompile(`\biso ?\d{4,5}\b|\bsoc ?2\b|\bcertified\b`)},
	{"gdpr", regexp.MustCompile(`\bgdpr\b`)},
	{"clients", regexp.MustCompile(`\bclients\b|\bcustomers\b`)},
	{"partners", regexp.MustCompile(`\bpartners\b`)},
	{"guarantee", regexp.MustCompile(`\bguarantee[d]?\b|\bmoney[- ]back\b`)},
}

func scoreClarity(d *document) outcome {
	var o outcome

	if d.headline != "" {
		o.add(30, fmt.Sprintf("H1 headline present (%q)", truncate(d.headline, 60)))

		if d.headlineWordsBefore <= 25 {
			o.add(10, "headline leads the page")
		} else {
			o.suggest("Move the headline above supporting copy so it is read first.")
		}

		words := len(strings.Fields(d.headline))
		switch {
		case words >= 3 && words <= 12:
			o.add(10, fmt.Sprintf("headline is short (%d words)", words))
		case words <= 20:
			o.add(5, "")
			o.suggest("Aim for a headline of 3 to 12 words.")
		default:
			o.suggest("Shorten the headline to under 12 words.")
		}
	} else {
		o.suggest("Add a single, specific H1 headline stating the offer.")
	}

	if d.title != "" {
		o.add(10, "document title set")
	} else {
		o.suggest("Add a descriptive <title>.")
	}

	if d.markupBytes > 0 && d.textBytes > 0 {
		ratio := float64(d.textBytes) / float64(d.markupBytes)
		pts := int(math.Min(15, math.Round(ratio*60)))
		if pts >= 8 {
			o.add(pts, fmt.Sprintf("copy dominates markup (text ratio %.2f)", ratio))
		} else {
			o.add(pts, "")
			o.suggest("Reduce markup bloat so the copy dominates the document.")
		}
	}

	if d.sentences > 0 {
		avg := float64(d.words) / float64(d.sentences)
		switch {
		case avg < 4:
			o.add(10, fmt.Sprintf("very short sentences (avg %.1f words)", avg))
		case avg <= 20:
			o.add(15, fmt.Sprintf("concise sentences (avg %.1f words)", avg))
		case avg <= 30:
			o.add(8, "")
			o.suggest(fmt.Sprintf("Shorten sentences; they average %.1f words.", avg))
		default:
			o.add(3, "")
			o.suggest(fmt.Sprintf("Break up long sentences; they average %.1f words.", avg))
		}
	}

	switch {
	case d.words >= 50 && d.words <= 400:
		o.add(10, fmt.Sprintf("copy length is scannable (%d words)", d.words))
	case d.words > 400:
		o.add(5, "")
		o.suggest("Keep copy concise; trim to the essentials.")
	case d.words > 0:
		o.add(4, "")
		o.suggest("Add enough supporting copy to explain the value proposition.")
	}

	return o
}

func scoreCredibility(d *document) outcome {
	var o outcome

	lower := strings.ToLower(d.text)
	var markers []string
	for _, m := range trustMarkers {
		if m.pattern.MatchString(lower) {
			markers = append(markers, m.name)
		}
	}
	if len(markers) > 0 {
		o.add(min(30, 6*len(markers)), "trust markers: "+strings.Join(markers, ", "))
	} else {
		o.suggest("Add trust badges, client logos or review ratings.")
	}

	switch {
	case d.testimonials >= 3:
		o.add(25, fmt.Sprintf("%d testimonial blocks", d.testimonials))
	case d.testimonials > 0:
		o.add(20, fmt.Sprintf("%d testimonial block(s)", d.testimonials))
	default:
		o.suggest("Add testimonials from named customers.")
	}

	if d.contactLinks > 0 || d.hasAddress {
		o.add(15, "contact details reachable")
	} else {
		o.suggest("Show a contact link, email, phone number or address.")
	}

	if d.secureLinks > 0 || d.policyLinks > 0 {
		o.add(10, "security or policy links present")
	} else {
		o.suggest("Show security/privacy info and link a privacy policy.")
	}

	switch {
	case d.imagesWithAlt >= 2:
		o.add(10, fmt.Sprintf("%d described images (logos, people)", d.imagesWithAlt))
	case d.imagesWithAlt == 1:
		o.add(5, "")
		o.suggest("Show recognisable client logos or customer photos.")
	}

	switch {
	case d.brokenLinks > 0:
		o.add(-min(15, 5*d.brokenLinks), fmt.Sprintf("%d broken or placeholder link(s)", d.brokenLinks))
		o.suggest("Fix empty, javascript: or localhost links.")
	case d.links > 0:
		o.add(10, "no broken link patterns")
	}

	return o
}

func scoreCTA(d *document) outcome {
	var o outcome

	if len(d.ctas) == 0 {
		o.suggest("Add a prominent call-to-action button with an action verb.")
		return o
	}

	first := d.ctas[0]
	o.add(40, fmt.Sprintf("%d call(s) to action, first %q", len(d.ctas), truncate(first.label, 40)))

	switch {
	case first.wordsBefore <= 100:
		o.add(25, "first CTA appears early")
	case first.wordsBefore <= 300:
		o.add(15, "")
		o.suggest("Move the primary CTA closer to the top of the page.")
	case first.wordsBefore <= 600:
		o.add(8, "")
		o.suggest("Place the primary CTA above the fold.")
	default:
		o.add(3, "")
		o.suggest("The first CTA is buried; place it above the fold.")
	}

	imperative := 0
	for _, c := range d.ctas {
		if c.imperative {
			imperative++
		}
	}
	pts := int(math.Round(15 * float64(imperative) / float64(len(d.ctas))))
	if imperative == len(d.ctas) {
		o.add(pts, "CTA labels start with action verbs")
	} else {
		o.add(pts, "")
		o.suggest("Start every CTA label with an action verb (e.g. \"Start free trial\").")
	}

	distinct := make(map[string]struct{}, len(d.ctas))
	for _, c := range d.ctas {
		distinct[strings.ToLower(c.label)] = struct{}{}
	}

	switch {
	case len(d.ctas) > len(distinct):
		o.add(10, "primary CTA repeated down the page")
	case len(d.ctas) == 1:
		o.add(5, "")
		o.suggest("Repeat the primary CTA after key sections.")
	}

	switch {
	case len(distinct) <= 2:
		o.add(10, "focused on a single next step")
	case len(distinct) <= 4:
		o.add(5, "")
		o.suggest("Reduce competing CTAs to one primary and one secondary action.")
	default:
		o.suggest(fmt.Sprintf("%d different CTAs compete for attention; pick one primary action.", len(distinct)))
	}

	return o
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
