package ideas

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Editable text format: a human-reviewable rendering of the idea file.
// Lines starting with "##" are structural directives; lines starting
// with a single "#" are comments and ignored on parse. The round trip
// lets a reviewer fix quotes before clips and subtitles are produced.

var actTitles = [ActCount + 1]string{
	"",
	"ACTO 1: PLANTEAMIENTO DEL PROBLEMA",
	"ACTO 2: DESAFÍO Y PROPUESTA",
	"ACTO 3: RESOLUCIÓN Y COMPROMISO",
}

var actHints = [ActCount + 1]string{
	"",
	"Frases que identifican un problema o deficiencia espiritual",
	"Frases que proponen un cambio o una nueva perspectiva",
	"Frases que hablan de resultados, promesas o compromisos",
}

// FormatEditable renders ideas as editable text, grouped by act.
func FormatEditable(ideas []KeyIdea) string {
	var b strings.Builder

	b.WriteString("# IDEAS CLAVE EXTRAÍDAS DEL SERMÓN - ESTRUCTURA DE TRES ACTOS\n")
	b.WriteString("# =================================\n")
	b.WriteString("# Instrucciones:\n")
	b.WriteString("# 1. Revisa cada idea y edita el texto si lo consideras necesario\n")
	b.WriteString("# 2. Mantén la estructura de 7 frases divididas en 3 actos\n")
	b.WriteString("# 3. No modifiques las líneas que comienzan con '##'\n")
	b.WriteString("# =================================\n\n")

	for act := 1; act <= ActCount; act++ {
		b.WriteString("## " + actTitles[act] + "\n")
		b.WriteString("# " + actHints[act] + "\n")
		b.WriteString("# ---------------------------------\n")

		n := 0
		for _, idea := range ideas {
			if idea.Act != act {
				continue
			}
			n++
			fmt.Fprintf(&b, "## IDEA %d.%d\n", act, n)
			b.WriteString("TEXTO: " + idea.Text + "\n")
			b.WriteString("REFERENCIA BÍBLICA: " + idea.BiblicalReference + "\n")
			b.WriteString("CONTEXTO: " + idea.Context + "\n\n")
		}
	}

	return b.String()
}

// ParseEditable reads edited text back into ideas. The result is
// sorted by act and order, with the derived fields recomputed so edits
// to quote text update the estimated durations.
func ParseEditable(text string) ([]KeyIdea, error) {
	var ideas []KeyIdea
	var current *KeyIdea
	act := 1

	flush := func() {
		if current != nil {
			ideas = append(ideas, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "## ACTO"):
			flush()
			a, err := parseActLine(line)
			if err != nil {
				return nil, err
			}
			act = a

		case strings.HasPrefix(line, "## IDEA"):
			flush()
			current = &KeyIdea{Act: act, Order: parseOrder(line)}

		case line == "" || strings.HasPrefix(line, "#"):
			// comment

		case current == nil:
			return nil, fmt.Errorf("content line outside an idea block: %q", line)

		case strings.HasPrefix(line, "TEXTO: "):
			current.Text = strings.TrimPrefix(line, "TEXTO: ")

		case strings.HasPrefix(line, "REFERENCIA BÍBLICA: "):
			current.BiblicalReference = strings.TrimPrefix(line, "REFERENCIA BÍBLICA: ")

		case strings.HasPrefix(line, "CONTEXTO: "):
			current.Context = strings.TrimPrefix(line, "CONTEXTO: ")
		}
	}
	flush()

	if len(ideas) == 0 {
		return nil, ErrNoIdeas
	}

	sort.SliceStable(ideas, func(i, j int) bool {
		if ideas[i].Act != ideas[j].Act {
			return ideas[i].Act < ideas[j].Act
		}
		return ideas[i].Order < ideas[j].Order
	})
	Derive(ideas)

	return ideas, nil
}

// parseActLine extracts the act number from a "## ACTO n: ..." line.
func parseActLine(line string) (int, error) {
	rest := strings.TrimPrefix(line, "## ACTO")
	rest = strings.TrimSpace(rest)
	num, _, _ := strings.Cut(rest, ":")
	act, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || act < 1 || act > ActCount {
		return 0, fmt.Errorf("invalid act heading: %q", line)
	}
	return act, nil
}

// parseOrder extracts the within-act order from a "## IDEA a.o" line,
// defaulting to 1 when the suffix is missing or malformed.
func parseOrder(line string) int {
	i := strings.LastIndexByte(line, '.')
	if i < 0 {
		return 1
	}
	order, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
	if err != nil || order < 1 {
		return 1
	}
	return order
}
