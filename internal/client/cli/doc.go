// Package cli provides the interactive NutriKeeper command-line client.
//
// It wires configuration, local storage, the API client, the auth store and
// an interactive REPL. Typical flow: restore the stored session, start a
// background connectivity watcher, and execute user commands.
//
// Key features:
//   - Sign up / sign in / email verification / sign out
//   - Meal photo analysis and meal logging
//   - Daily summary, goals and progress
//   - Nutrition chat, meal plans and the calendar
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
