/*
Package resilience provides the circuit breaker guarding remote
document service calls.

The filtering and answering endpoints are single points of failure for
the hub; when they misbehave the breaker fails fast instead of stacking
timed-out requests behind one another.

# Usage

	breaker := resilience.New("document-service", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		Probes:           3,
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.Call()
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes succeed]-> Closed
	                                            |
	                                      [probe fails]
	                                            v
	                                           Open

A rejected call returns ErrCircuitOpen, which the remote client maps to
the transport-failure path.
*/
package resilience
