// Package service provides the script loading engine.
//
// The engine is independent of any concrete page. It consumes two
// capabilities through interfaces: a Document that creates and attaches
// script elements, and a ScriptRepository that records outcomes and the
// loads in flight for each name.
//
// This package contains:
//
//   - Loader: the single-load state machine and the batch join
//   - Flight: one attached element shared by every request for its name
//   - Pending: the cancellable asynchronous result of one request
//
// A name that already loaded never triggers another injection. Concurrent
// requests for a name with a load in flight join that load instead of
// attaching a second element.
package service
