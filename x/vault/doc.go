/*
Package vault implements the simple custody program.

An owner initializes a vault state. Two addresses are derived from it: the
auth address ["auth", state] and the native vault ["vault", auth]. Native
lamports are held directly by the vault address while tokens are held in
the associated token account of the auth address. Anyone may deposit
into a vault, signing for the funds they move. Withdrawals require the
recorded owner and are signed by the program through the recorded bumps.
*/
package vault
