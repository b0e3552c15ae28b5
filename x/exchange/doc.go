/*
Package exchange implements a non expiring two party token swap.

An initializer locks InitializerAmount of one mint and names the account
that receives TakerAmount of another mint. The addresses involved are

	authority ["authority"]         owns every vault of the program
	state     ["state", seed]       address of the exchange record
	vault     ["vault", state]      token account holding the deposit

Only the initializer can cancel. Anyone can complete the exchange.
*/
package exchange
