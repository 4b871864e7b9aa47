package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	domcat "github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
)

// Messages delivered to Update.
type (
	panelMsg    panel.View
	navigateMsg string
	stateMsg    query.State
	resultsMsg  struct {
		results cataloguc.Results
		err     error
	}
	productMsg struct {
		product domcat.Product
		err     error
	}
)

const navigateBuffer = 8

// bridge adapts the controller's sink and the query state listener to tea
// messages. Only the latest panel view and state are kept; none of its
// methods block.
type bridge struct {
	views  chan panel.View
	states chan query.State
	navs   chan string
	done   chan struct{}
}

func newBridge() *bridge {
	return &bridge{
		views:  make(chan panel.View, 1),
		states: make(chan query.State, 1),
		navs:   make(chan string, navigateBuffer),
		done:   make(chan struct{}),
	}
}

// Render implements panel.Sink.
func (b *bridge) Render(v panel.View) {
	for {
		select {
		case b.views <- v:
			return
		default:
		}
		select {
		case <-b.views:
		default:
		}
	}
}

// Navigate implements panel.Sink. Targets beyond the buffer are dropped.
func (b *bridge) Navigate(url string) {
	select {
	case b.navs <- url:
	default:
	}
}

func (b *bridge) stateChanged(st query.State) {
	for {
		select {
		case b.states <- st:
			return
		default:
		}
		select {
		case <-b.states:
		default:
		}
	}
}

func (b *bridge) close() { close(b.done) }

// listen waits for the next bridge message.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case v := <-b.views:
			return panelMsg(v)
		case st := <-b.states:
			return stateMsg(st)
		case url := <-b.navs:
			return navigateMsg(url)
		case <-b.done:
			return nil
		}
	}
}
