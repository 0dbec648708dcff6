// Package services contains the application services of the NutriKeeper
// client: the auth flows that drive the state store, and the sign-out
// cleanup cascade.
package services
