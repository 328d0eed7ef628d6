package constant

// Step identifies the conversation state of a user session.
type Step string

const (
	// StepMenu is the resting state; every completed flow returns here.
	StepMenu Step = "menu"

	// Steps of the "new reminder" flow.
	StepNuevoNombre    Step = "nuevo_nombre"
	StepNuevoFecha     Step = "nuevo_fecha"
	StepNuevoIntervalo Step = "nuevo_intervalo"

	// Steps of the "modify reminder" flow.
	StepModificarElegir    Step = "modificar_elegir"
	StepModificarMenu      Step = "modificar_menu"
	StepModificarNombre    Step = "modificar_nombre"
	StepModificarFecha     Step = "modificar_fecha"
	StepModificarIntervalo Step = "modificar_intervalo"

	// StepCalculadoraHoras waits for an hour amount to convert to minutes.
	StepCalculadoraHoras Step = "calculadora_horas"
)

func (s Step) String() string {
	return string(s)
}
