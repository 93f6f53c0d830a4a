// Package request routes typed requests to exactly one handler through an
// ordered pipeline of behaviors.
//
// A request declares its response type by embedding one of the marker types:
//
//	type GetGreeting struct {
//		request.Query[string]
//		Name string
//	}
//
//	type DeleteUser struct {
//		request.Command
//		ID string
//	}
//
// Handlers are registered on a Registry, which is frozen into a Dispatcher:
//
//	reg := request.NewRegistry()
//	request.RegisterFunc(reg, func(ctx context.Context, q GetGreeting) (result.Of[string], error) {
//		return result.Ok("hello " + q.Name), nil
//	})
//	reg.Use(request.Always(loggingBehavior))
//
//	d := request.NewDispatcher(reg, request.WithLogger(logger))
//	out, err := request.Send(ctx, d, GetGreeting{Name: "Ann"}) // out is result.Of[string]
//
// # Dispatch plans
//
// The first Send for a concrete request type resolves its handler entry and
// asks every registered OpenBehavior whether it applies to the
// (request, response) signature. The outcome is cached per request type and
// reused by every later call, so the per-call cost is one lock-free map read
// plus the per-scope instantiation of the handler and behaviors.
//
// # Pipeline order
//
// Behaviors wrap the handler in registration order: the first registered
// behavior is the outermost and sees the request first and the response last.
// A behavior may return without calling next, in which case nothing inside
// it runs.
//
// # Scopes
//
// Handler and behavior factories receive a *scope.Scope. Send uses the scope
// carried by ctx when present, otherwise it opens one for the call and closes
// it when the call returns.
package request
