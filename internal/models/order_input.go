package models

import "github.com/matyusmilan/xm-forex/pkg/utils"

// ParseOrderInput разбирает и валидирует тело запроса на размещение ордера
//
// Используется и HTTP handler'ом, и WebSocket клиентом.
// Ошибки возвращаются как utils.ValidationErrors.
func ParseOrderInput(data []byte) (OrderInput, error) {
	obj, err := utils.DecodeObject(data, utils.LocBody)
	if err != nil {
		return OrderInput{}, err
	}

	var errs utils.ValidationErrors
	input := OrderInput{
		Stoks:    utils.RequireString(obj, "stoks", utils.LocBody, &errs),
		Quantity: utils.RequireNumber(obj, "quantity", utils.LocBody, &errs),
	}

	if err := errs.OrNil(); err != nil {
		return OrderInput{}, err
	}
	return input, nil
}
