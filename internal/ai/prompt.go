// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"fmt"
	"strings"

	"astrodesk/internal/astro"
	"astrodesk/internal/models"
)

// schoolDescriptions adapt the system prompt to the interpretive tradition
// the user selected.
var schoolDescriptions = map[string]string{
	"modern":        "modern psychological astrology, focused on growth and self-understanding",
	"traditional":   "traditional Hellenistic astrology, with essential dignities and sect",
	"evolutionary":  "evolutionary astrology, focused on the soul's development across lifetimes",
	"humanistic":    "humanistic astrology in the style of Dane Rudhyar, cycle- and purpose-oriented",
}

// interpretationPrompts builds the system and user prompts for a chart
// interpretation request.
func interpretationPrompts(chart astro.ChartData, chartType models.ChartType, school, relationshipType string) (string, string) {
	tradition, ok := schoolDescriptions[school]
	if !ok {
		tradition = schoolDescriptions["modern"]
	}

	system := fmt.Sprintf(`You are an experienced astrologer writing in the tradition of %s.
Write a flowing interpretation of the chart data provided by the user.

Rules:
- Output plain prose paragraphs. No markdown headings, no bullet lists.
- Ground every statement in the positions and aspects given. Do not invent placements.
- Write 4-7 paragraphs: an overview, the most significant themes, and a closing synthesis.
- Address the reader directly and warmly, without jargon-dumping.`, tradition)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Chart type: %s\n", chartType)
	if chartType.RequiresPartner() && relationshipType != "" {
		fmt.Fprintf(&sb, "Relationship type: %s\n", relationshipType)
	}
	fmt.Fprintf(&sb, "Cast for: %s\n\nPositions:\n", chart.AsOf.Format("2006-01-02"))
	for _, p := range chart.Positions {
		fmt.Fprintf(&sb, "- %s at %.1f° %s\n", p.Body, p.SignDeg, p.Sign)
	}
	if len(chart.Aspects) > 0 {
		sb.WriteString("\nAspects:\n")
		for _, a := range chart.Aspects {
			fmt.Fprintf(&sb, "- %s %s %s (orb %.1f°)\n", a.A, a.Type, a.B, a.Orb)
		}
	}
	fmt.Fprintf(&sb, "\nHouse cusps start at %.1f°.\n", chart.Houses[0])

	return system, sb.String()
}
