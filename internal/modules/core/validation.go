package core

import (
	"context"

	"github.com/eskrenkovic/mediator-go"
)

// Validator is implemented by commands and queries that can reject
// themselves before reaching a handler.
type Validator interface {
	Validate() error
}

type RequestValidationBehavior struct{}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			return nil, NewCommandError(400, err, WithReason("request validation failed"))
		}
	}

	return next(ctx, request)
}
