// Package ankiconnect is a typed client for the AnkiConnect add-on's
// single-endpoint action API.
//
// Every request is a JSON POST of {action, params, version, key} to one URL and
// every response is an {error, result} envelope. Each action of the API is a
// typed catalog entry (Action[P, R]); one dispatch path serializes the request,
// validates the envelope and, when the desktop app looks unavailable, makes a
// single throttled attempt to launch it before retrying once.
//
// Usage:
//
//	client, err := ankiconnect.New(
//		ankiconnect.WithAutoLaunch(ankiconnect.AutoLaunchOnDemand),
//	)
//	if err != nil {
//		return err
//	}
//	decks, err := client.Deck.DeckNames(ctx)
//
// Actions can also be called generically:
//
//	stats, err := ankiconnect.Call(ctx, client, ankiconnect.GetDeckStats,
//		ankiconnect.DecksParams{Decks: decks})
//
// or without the catalog's types through (*Client).Invoke, which returns the
// raw envelope.
package ankiconnect
