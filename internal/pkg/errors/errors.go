package errors

import "errors"

// Custom application errors
var (
	ErrUnauthorized    = errors.New("usuario no autorizado")               // Sender is not in the authorized set
	ErrInvalidDate     = errors.New("fecha inválida")                      // Date text does not match YYYY-MM-DD HH:mm
	ErrInvalidInterval = errors.New("intervalo inválido")                  // Interval is zero, negative or not a number
	ErrInvalidIndex    = errors.New("índice de recordatorio inválido")     // Index outside the user's reminder list
	ErrInvalidAmount   = errors.New("cantidad de horas inválida")          // Calculator input is negative or not a number
	ErrSendMessage     = errors.New("no se pudo enviar el mensaje")        // Outbound delivery failed (best effort, never retried)
	ErrPersistSnapshot = errors.New("no se pudo guardar los recordatorios") // Durable snapshot write failed
	ErrAuthSourceLoad  = errors.New("no se pudo cargar la lista de usuarios") // Authorization file unreadable or malformed
	ErrStoreOperation  = errors.New("operación de almacenamiento fallida")  // Generic store backend error
)
