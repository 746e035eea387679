package bot

import (
	"errors"
	"html"

	"karma_server/lib"
)

// userMessage turns a service error into something a customer can act on
func userMessage(err error) string {
	switch {
	case errors.Is(err, lib.ErrNotFound):
		return "❌ Не найдено. Возможно, товар уже удалён, выберите другой."
	case errors.Is(err, lib.ErrEmptyCart):
		return textEmptyCart
	case errors.Is(err, lib.ErrOrderInProgress):
		return "⏳ У вас есть неоплаченный заказ. Оплатите его или отмените."
	case errors.Is(err, lib.ErrNoPendingInput):
		return textUseMenu
	case errors.Is(err, lib.ErrInvalidTransition):
		return "❌ Это действие сейчас недоступно. Начните заново из меню."
	case errors.Is(err, lib.ErrValidation):
		return "❌ Некорректные данные."
	case errors.Is(err, lib.ErrDuplicate):
		return "❌ Такая запись уже существует."
	case errors.Is(err, lib.ErrExternalService):
		return "❌ Платёжный сервис сейчас недоступен. Попробуйте ещё раз чуть позже."
	case errors.Is(err, lib.ErrForbidden):
		return textForbidden
	}
	return textGenericError
}

// adminMessage adds the error detail for expected failures
func adminMessage(err error) string {
	msg := userMessage(err)
	if errors.Is(err, lib.ErrNotFound) {
		msg = "❌ Не найдено."
	}
	switch {
	case errors.Is(err, lib.ErrNotFound),
		errors.Is(err, lib.ErrValidation),
		errors.Is(err, lib.ErrDuplicate),
		errors.Is(err, lib.ErrInvalidTransition):
		msg += "\n<code>" + html.EscapeString(err.Error()) + "</code>"
	}
	return msg
}

// isExpected reports whether err is part of the normal flow and needs no error log
func isExpected(err error) bool {
	for _, target := range []error{
		lib.ErrNotFound, lib.ErrEmptyCart, lib.ErrOrderInProgress, lib.ErrNoPendingInput,
		lib.ErrInvalidTransition, lib.ErrValidation, lib.ErrDuplicate, lib.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
