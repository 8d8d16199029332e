/*
Package identitysdk provides a client SDK for the Vitrine identity service.

# Overview

The package covers both halves of the sign-in protocol: thin HTTP bindings
for the service endpoints (via Client) and the client-side protocol state
that storefront surfaces need to drive a sign-in, sign-up, or password-reset
attempt (Flow, CooldownTimer, Ledger, SessionStore).

Create a Client to talk to the service:

	client := identitysdk.NewClient("https://identity.example.com")

	receipt, err := client.RequestCode(ctx, identitysdk.KindEmail, "ada@example.com")
	proof, err := client.VerifyCode(ctx, identitysdk.KindEmail, "ada@example.com", "1234")

# Flows

A Flow owns the state for exactly one attempt: the classified identifier,
the active challenge's cooldown, and the verification ledger. Flows enforce
a single pending network operation and discard responses that arrive after
the flow was reset or the identifier re-classified, so stale results never
land on fresh state.

	flow := identitysdk.NewFlow(client, store)
	flow.SetIdentifier("0412345678")

	if err := flow.RequestCode(ctx); err != nil { ... }
	if err := flow.VerifyCode(ctx, userTypedCode); err != nil { ... }

# Verification ledger

Registration requires every submitted channel to be verified. The Ledger
binds each proof token to the identifier value it was minted for; editing a
field after verifying it silently invalidates that proof, and IsComplete
reports whether the attempt may be submitted.

# Sessions

SessionStore persists the issued bearer token together with the user record
and role as one unit under a role-qualified key. Collaborating surfaces
(cart, order history, profile) read the record through Current; only the
sign-in flow writes it. Signing a customer in clears the role's guest
identifier.

# Error handling

Failures surface as typed errors: *APIError for status:0 envelopes,
*RateLimitedError when the resend cooldown was violated (carrying the
remaining wait), and SecondFactorRequiredError when a login needs a second
factor (a control-flow branch rather than a terminal failure).
*/
package identitysdk
