package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound signals a product id the catalog does not know.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuery signals malformed search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrGatewayError signals a failure of the hosted search service.
	ErrGatewayError = errors.New("search gateway error")
	// ErrUnknownSource signals a selection that references no registered suggestion source.
	ErrUnknownSource = errors.New("unknown suggestion source")
	// ErrControllerClosed signals an event sent to an unmounted panel.
	ErrControllerClosed = errors.New("panel controller closed")
	// ErrPoolOverloaded signals that the fetch worker pool rejected a task.
	ErrPoolOverloaded = errors.New("fetch pool overloaded")
)
