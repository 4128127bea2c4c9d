package accesslist

import (
	"context"
	"net"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
	"github.com/yl2chen/cidranger"
)

// AccessList refuses clients outside the configured networks.
type AccessList struct {
	ranger cidranger.Ranger
}

// New return accesslist, nil when no network is configured.
func New(cfg *config.Config) *AccessList {
	if len(cfg.AccessList) == 0 {
		return nil
	}

	a := &AccessList{ranger: cidranger.NewPCTrieRanger()}

	for _, cidr := range cfg.AccessList {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			zlog.Error("Access list parse cidr failed", "cidr", cidr, "error", err.Error())
			continue
		}

		if err := a.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet)); err != nil {
			zlog.Error("Access list insert failed", "cidr", cidr, "error", err.Error())
		}
	}

	return a
}

// Name return middleware name
func (a *AccessList) Name() string { return name }

// ServeDNS implements the Handler interface.
func (a *AccessList) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ip := ch.Writer.RemoteIP()

	allowed := false
	if ip != nil {
		allowed, _ = a.ranger.Contains(ip)
	}

	if !allowed {
		zlog.Debug("Client not in access list", "client", ip.String())
		ch.CancelWithRcode(dns.RcodeRefused)
		return
	}

	ch.Next(ctx)
}

const name = "accesslist"
