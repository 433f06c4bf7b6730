package server

import (
	"context"
	"fmt"
	"net"
	"time"
)

// lanDiscoveryAddr is the multicast group and port vanilla clients listen
// on for "Add Server > LAN World" style broadcasts.
const lanDiscoveryAddr = "224.0.2.60:4445"

// lanBroadcastInterval is how often a datagram is resent; vanilla resends
// at roughly the same cadence so a server stays visible after a client's
// LAN list refresh.
const lanBroadcastInterval = 1500 * time.Millisecond

// BroadcastLAN sends periodic "[MOTD]...[/MOTD][AD]port[/AD]" datagrams to
// the LAN discovery multicast group until ctx is canceled. Disabled
// entirely unless Config.LANDiscovery is set.
func BroadcastLAN(ctx context.Context, cfg Config) error {
	if !cfg.LANDiscovery {
		<-ctx.Done()
		return nil
	}

	raddr, err := net.ResolveUDPAddr("udp4", lanDiscoveryAddr)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	payload := []byte(fmt.Sprintf("[MOTD]%s[/MOTD][AD]%d[/AD]", cfg.MOTD, cfg.Port))

	ticker := time.NewTicker(lanBroadcastInterval)
	defer ticker.Stop()

	for {
		if _, err := conn.Write(payload); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
