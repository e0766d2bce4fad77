// Package prompt holds the instruction texts sent to the completion API
// and a validated Name type for selecting them. Prompts are Spanish:
// the pipeline processes Spanish-language sermons and the instructions
// were tuned against real transcripts.
package prompt

import (
	"errors"
	"fmt"
)

// ErrUnknown indicates an invalid prompt name was specified.
var ErrUnknown = errors.New("unknown prompt")

// Prompt name constants.
const (
	ChunkCorrection = "chunk-correction"
	UnitCorrection  = "unit-correction"
	IdeaExtraction  = "idea-extraction"
)

// Name represents a validated prompt name. Zero value is invalid and
// must not be used with System or User.
type Name struct {
	name string
}

// Pre-parsed names for use in code.
var (
	ChunkCorrectionName = Name{name: ChunkCorrection}
	UnitCorrectionName  = Name{name: UnitCorrection}
	IdeaExtractionName  = Name{name: IdeaExtraction}
)

// ParseName validates and parses a prompt name string.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, fmt.Errorf("prompt name cannot be empty: %w", ErrUnknown)
	}
	if _, ok := prompts[s]; !ok {
		return Name{}, fmt.Errorf("unknown prompt %q: %w", s, ErrUnknown)
	}
	return Name{name: s}, nil
}

// MustParseName parses a prompt name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the prompt name. Empty for the zero value.
func (n Name) String() string { return n.name }

// IsZero reports whether no prompt was selected.
func (n Name) IsZero() bool { return n.name == "" }

// System returns the system instruction for this prompt.
// Panics on the zero value.
func (n Name) System() string {
	if n.name == "" {
		panic("prompt.Name.System called on zero value")
	}
	return prompts[n.name].system
}

// User returns the user-message template for this prompt. The template
// ends where the payload text should be appended.
// Panics on the zero value.
func (n Name) User() string {
	if n.name == "" {
		panic("prompt.Name.User called on zero value")
	}
	return prompts[n.name].user
}

type promptPair struct {
	system string
	user   string
}

var prompts = map[string]promptPair{
	ChunkCorrection: {
		system: `Eres un asistente especializado en corregir y mejorar transcripciones de sermones, manteniendo su contenido esencial intacto.`,
		user: `Por favor, corrige la siguiente transcripción de un sermón.
Mejora la ortografía, gramática, puntuación y legibilidad general.
Mantén el contenido y el significado original pero mejora la estructura de las oraciones si es necesario.
No agregues ni elimines información sustancial.

Transcripción:

`,
	},

	UnitCorrection: {
		system: `Eres un corrector EXTREMADAMENTE CONSERVADOR de transcripciones de sermones religiosos.
Tu ÚNICA tarea es corregir errores ortográficos, gramaticales, y términos religiosos mal transcritos,
MANTENIENDO EXACTAMENTE la misma estructura, formato y contenido.`,
		user: `INSTRUCCIONES DE CORRECCIÓN ESTRICTAS:

Corrige ÚNICAMENTE los siguientes tipos de errores en este fragmento de un sermón:
1. Errores ortográficos básicos (palabras mal escritas)
2. Errores gramaticales evidentes
3. Términos bíblicos o teológicos incorrectos, incluyendo:
   - Nombres de libros bíblicos mal escritos o confundidos
   - Referencias incorrectas como "avenida del Señor" que debería ser "venida del Señor"
   - Palabras teológicas incorrectas o mal transcritas
4. Nombres propios de personas bíblicas o religiosas conocidas

REGLAS QUE DEBES SEGUIR ABSOLUTAMENTE:
1. NO CAMBIES la estructura o formato del texto
2. NO AGREGUES ni ELIMINES contenido
3. NO ALTERES los saltos de línea
4. NO REESCRIBAS ni PARAFRASEES el texto
5. MANTÉN los términos y expresiones propias del predicador aunque parezcan coloquiales
6. PRESERVA las repeticiones intencionales (como palabras repetidas)
7. NO INTENTES mejorar la claridad o fluidez del texto

RESPONDE ÚNICAMENTE CON EL TEXTO CORREGIDO, SIN COMENTARIOS ADICIONALES.

TEXTO A CORREGIR:

`,
	},

	IdeaExtraction: {
		system: `Eres un asistente especializado en análisis de contenido religioso cristiano.
Tu tarea es extraer exactamente 7 frases clave de un sermón siguiendo una estructura narrativa
de tres actos: planteamiento del problema, desafío/propuesta, y resolución/compromiso.`,
		user: `INSTRUCCIONES DETALLADAS:

Analiza la siguiente transcripción de un sermón cristiano y extrae exactamente 7 frases clave,
organizadas según una estructura narrativa de tres actos:

ACTO 1 - PLANTEAMIENTO DEL PROBLEMA (2 frases):
- Frases que identifican un problema o deficiencia espiritual
- Frases que cuestionan prácticas superficiales de fe

ACTO 2 - DESAFÍO Y PROPUESTA (2 frases):
- Frases que proponen un cambio o una nueva perspectiva
- Frases que desafían al oyente a tomar acción

ACTO 3 - RESOLUCIÓN Y COMPROMISO (3 frases):
- Frases que hablan de resultados y promesas
- Frases que expresan compromiso o intención
- Frases que concluyen con una verdad bíblica

CRITERIOS DE SELECCIÓN:
1. Usa EXACTAMENTE las palabras del predicador, sin parafrasear
2. Selecciona frases que funcionen de forma independiente y tengan impacto
3. Prefiere frases que incluyan referencias bíblicas cuando sea posible
4. Cada frase debe ser breve y clara (1-3 oraciones como máximo)
5. Selecciona frases que mantengan coherencia narrativa entre sí

FORMATO DE RESPUESTA:
Responde ÚNICAMENTE con un array JSON que contenga exactamente 7 objetos, cada uno con:
- "acto": Número del acto (1, 2 o 3)
- "orden": Número de orden dentro del acto
- "texto": La frase o idea clave (usando las palabras exactas del predicador)
- "referencia_biblica": Referencia bíblica mencionada (si existe) o "No especificada"
- "contexto": Breve descripción (10-15 palabras) sobre el contexto

Las frases deben seguir EXACTAMENTE esta distribución:
- 2 frases para el Acto 1 (Planteamiento)
- 2 frases para el Acto 2 (Desafío)
- 3 frases para el Acto 3 (Resolución)

No incluyas ningún texto adicional, comentario o explicación. Solo el array JSON.

TRANSCRIPCIÓN DEL SERMÓN:

`,
	},
}
