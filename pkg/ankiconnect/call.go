package ankiconnect

import (
	"context"
	"fmt"
	"reflect"

	"yanki-connect/internal/domain"
)

// Invoke sends a catalog action and returns its typed envelope. Like
// (*Client).Invoke it does not turn an in-band error into a Go error; use
// Response.Err or Call for that.
func Invoke[P, R any](ctx context.Context, c *Client, a Action[P, R], params P) (*Response[R], error) {
	if !IsKnown(a.name) {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrUnknownAction, a.name)
	}
	var raw any = params
	if _, bare := raw.(NoParams); bare {
		raw = nil
	} else if isNil(raw) {
		return nil, domain.NewDomainError("ankiconnect.Invoke", domain.ErrInvalidInput,
			fmt.Sprintf("action %s requires params", a.name))
	}
	env, err := c.dispatch(ctx, a.name, raw)
	if err != nil {
		return nil, err
	}
	return typed[R](a.name, env)
}

// InvokeBare is Invoke for parameterless actions.
func InvokeBare[R any](ctx context.Context, c *Client, a Action[NoParams, R]) (*Response[R], error) {
	return Invoke(ctx, c, a, NoParams{})
}

// Call sends a catalog action and returns its result. An in-band error is
// returned as an *ActionError carrying the server's message.
func Call[P, R any](ctx context.Context, c *Client, a Action[P, R], params P) (R, error) {
	var zero R
	resp, err := Invoke(ctx, c, a, params)
	if err != nil {
		return zero, err
	}
	if err := resp.Err(); err != nil {
		return zero, err
	}
	return resp.Result, nil
}

// CallBare is Call for parameterless actions.
func CallBare[R any](ctx context.Context, c *Client, a Action[NoParams, R]) (R, error) {
	return Call(ctx, c, a, NoParams{})
}

// exec is Call for actions whose result carries nothing.
func exec[P any](ctx context.Context, c *Client, a Action[P, NoResult], params P) error {
	_, err := Call(ctx, c, a, params)
	return err
}

// isNil reports whether v would encode as a JSON null.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
