// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives one prompt at a time from submission to the
// saved exchange.
//
// # Key Types
//
//   - Accumulator: builds the response text from streamed fragments
//   - Controller: per-view state machine (Idle, Submitting, Streaming,
//     Committing) that owns the in-flight Turn and the active session
//   - Turn: the prompt and partial response of the request in flight
//
// # Lifecycle
//
// A frontend either drives the controller step by step from its own event
// loop (Submit, then Append per fragment, then Finish) or hands it a whole
// request with Run, which blocks until the response is saved. Either way the
// exchange is committed exactly once, with whatever text arrived, even when
// the stream fails part way.
package conversation
