// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package account provides the credential and account-recovery core for
// ChimeHook.
//
// # Domain Types
//
// Domain types (User, Group, AuthToken) should be created using their
// respective constructors:
//   - NewUser - creates a User with a validated username and credential
//   - NewGroup - creates a Group with a normalized name and owner
//   - NewAuthToken - creates an AuthToken bound to its owning user
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Credentials
//
// Stored credentials come in two shapes: ModernCredential (argon2id, salt
// embedded in the encoded hash) and LegacyCredential (salted single-pass
// digest carried over from old accounts). ParseCredential reconstructs the
// right variant from storage and rejects anything that matches neither shape.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration, authentication, password changes, deletion
//   - Registry - group ownership used for authorization checks
//   - ResetService - issue/validate/revoke of password-reset tokens
//
// Services are created with New* constructors that validate dependencies.
package account
