/*
Package main implements ingressdns, a DNS responder for Kubernetes Ingress hosts.

ingressdns listens on UDP and answers A and ANY queries with the address of
its own pod for every name that is routed by an Ingress in the cluster. Hosts
are matched literally, or as "*.suffix" wildcards covering any name that ends
in ".suffix". The Ingress list is read from the API server on every query, so
answers follow Ingress changes without a cache to invalidate.

Names that are not routed get a NoData reply: NOERROR with no answers. When
several responders serve the same clients, the NoData reply can be held back
by a delay so that a responder holding a positive answer is heard first. The
delay is read from the dns-nodata-delay-ms file in the config directory and
follows changes to that file while running, including removal and
recreation as done by mounted config volumes.

Architecture:

Every query runs through a middleware chain:

 1. Recovery - Panic recovery, answers SERVFAIL
 2. Metrics - Prometheus query counters
 3. AccessList - Optional client network filter, answers REFUSED
 4. RateLimit - Optional per client rate limiting, answers REFUSED
 5. AccessLog - Optional Common Log Format access log
 6. Responder - Ingress lookup, answer building and NoData delay

Configuration:

Settings come from an optional TOML file (default: ingressdns.conf) and the
environment, the environment winning:

  - POD_IP: address returned in answers and bound by the listener (required)
  - DNS_PORT: listening port (default 53)
  - CONFIG_DIR: directory holding dns-nodata-delay-ms (default /config)
  - DNS_NODATA_DELAY_MS: delay used until the delay file is readable (default 0)
  - KUBECONFIG: cluster credentials when not running in a pod

A commented default file is written with:

	ingressdns --generate -c ingressdns.conf

HTTP API:

When enabled (default 127.0.0.1:8080) the API serves /metrics for Prometheus,
/healthz, and /api/v1/nodata with the current delay and watcher state.
*/
package main
