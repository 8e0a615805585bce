// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package auth provides the authentication and session persistence core.
//
// # Domain Types
//
// User and Session are the persisted records; NewUser and NewSession are
// their creation inputs. UserInfo is the read projection handed to callers
// that establish a logged-in identity. NewUser carries a cleartext password
// and redacts it when formatted or logged.
//
// # Adapters and Transactions
//
// UserAdapter and SessionAdapter translate between these types and storage.
// Every adapter method receives the live transaction handle of type Tx; the
// adapters never open transactions themselves. A Transactor runs a unit of
// work inside one transaction, committing when it returns nil and rolling
// back otherwise.
//
// # Service
//
// Service composes the adapters. Each public operation opens exactly one
// transaction. Authenticate reports every failure as ErrNotFound with a
// uniform message so a remote caller cannot tell an unknown email from a
// wrong password; GetUser and the session operations keep the finer kinds.
package auth
