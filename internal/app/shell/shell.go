// Package shell derives the navigation model from session state: which screen the
// app opens on and which tabs the main shell shows.
package shell

import (
	"github.com/gatepass-registry/gatepass/internal/app/rolegate"
	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
)

type Route int

const (
	// RouteSplash is shown while the launch state is still unknown.
	RouteSplash Route = iota
	RouteLogin
	RouteMain
)

func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteMain:
		return "main"
	default:
		return "splash"
	}
}

type Tab string

const (
	TabHome       Tab = "home"
	TabDisplay    Tab = "display"
	TabAddVehicle Tab = "add-vehicle"
	TabUpdate     Tab = "update"
	TabAdmin      Tab = "admin"
)

// InitialRoute picks the first screen from the bootstrap result.
func InitialRoute(st session.State) Route {
	switch st.Status {
	case session.StatusAuthenticated:
		return RouteMain
	case session.StatusUnauthenticated:
		return RouteLogin
	default:
		return RouteSplash
	}
}

// Tabs lists the main shell tabs visible with caps, in display order.
func Tabs(caps rolegate.Capabilities) []Tab {
	tabs := []Tab{TabHome, TabDisplay}
	if caps.CanManageVehicles {
		tabs = append(tabs, TabAddVehicle, TabUpdate)
	}
	if caps.CanManageAdmins {
		tabs = append(tabs, TabAdmin)
	}
	return tabs
}

// LandingTab is the tab selected right after a login. Accounts that can manage
// admins land on the Admin tab, everyone else on Home.
func LandingTab(role domain.Role) Tab {
	if rolegate.For(role).CanManageAdmins {
		return TabAdmin
	}
	return TabHome
}

// View is the navigation state derived from one session snapshot.
type View struct {
	Epoch uint64
	Route Route
	Tabs  []Tab
}

// ViewOf derives the view for a snapshot. An unauthenticated snapshot always routes to
// the login screen with no tabs.
func ViewOf(snap session.Snapshot) View {
	if !snap.Session.Authenticated() {
		return View{Epoch: snap.Epoch, Route: RouteLogin}
	}
	return View{Epoch: snap.Epoch, Route: RouteMain, Tabs: Tabs(snap.Capabilities)}
}
