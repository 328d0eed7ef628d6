package service

// User-facing texts. The bot speaks Spanish, matching the audience of the
// original deployment.
const (
	msgNoAutorizado = "❌ No tienes permiso para usar este bot."

	msgMenu = "📋 Menú principal:\n\n1️⃣ Añadir recordatorio\n2️⃣ Ver recordatorios\n3️⃣ Modificar recordatorios\n4️⃣ Calculadora (horas → minutos)"

	msgSinRecordatorios          = "📂 No tienes recordatorios."
	msgSinRecordatoriosModificar = "📂 No tienes recordatorios para modificar."

	msgPedirNombre    = "📝 Nombre del recordatorio:"
	msgPedirFecha     = "📅 Fecha de entrega (YYYY-MM-DD HH:mm):"
	msgPedirIntervalo = "⏳ Intervalo de recordatorio (minutos):"
	msgPedirHoras     = "⌛ Ingresa cuántas horas quieres convertir a minutos:"

	msgFechaInvalida     = "❌ Fecha inválida. Usa: YYYY-MM-DD HH:mm"
	msgIntervaloInvalido = "❌ Intervalo inválido. Debe ser > 0."
	msgOpcionInvalida    = "❌ Opción inválida."
	msgHorasInvalidas    = "❌ Valor inválido. Ingresa un número válido de horas."

	msgGuardado             = "✅ Recordatorio guardado. Escribe \"menu\"."
	msgNombreActualizado    = "✅ Nombre actualizado. Escribe \"menu\"."
	msgFechaActualizada     = "✅ Fecha actualizada. Escribe \"menu\"."
	msgIntervaloActualizado = "✅ Intervalo actualizado. Escribe \"menu\"."
	msgEliminado            = "🗑 Eliminado. Escribe \"menu\"."
	msgVolverMenu           = "↩️ Volviendo al menú. Escribe \"menu\"."

	msgPedirNuevoNombre    = "📝 Nuevo nombre:"
	msgPedirNuevaFecha     = "📅 Nueva fecha (YYYY-MM-DD HH:mm):"
	msgPedirNuevoIntervalo = "⏳ Nuevo intervalo (minutos):"
)
