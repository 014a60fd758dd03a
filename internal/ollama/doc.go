// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
//
// Only the calls a chat client needs are implemented: a health check,
// the local model list and streamed chat completions.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - StreamReader: NDJSON reader over a /api/chat response body
//   - Responder: turns one prompt into a Fragments sequence
//   - Fragments: pull-based sequence of non-empty text fragments
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: cfg.Ollama.URL})
//	responder := ollama.NewResponder(client, "onecern", "")
//
//	frags, err := responder.StreamResponse(ctx, "What is a QP?")
//	if err != nil {
//	    return err
//	}
//	defer frags.Close()
//	for {
//	    text, err := frags.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err // response incomplete
//	    }
//	    fmt.Print(text)
//	}
package ollama
