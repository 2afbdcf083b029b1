package standard

import (
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

func argError(index int, want string) error {
	return &transport.RemoteFailure{Code: transport.CodeGenericFault, Message: "samp: argument " + strconv.Itoa(index) + " must be " + want}
}

func stringArg(args sampvalue.List, i int) (string, error) {
	if i >= len(args) {
		return "", argError(i, "present")
	}
	s, ok := args[i].(sampvalue.String)
	if !ok {
		return "", argError(i, "a string")
	}
	return string(s), nil
}

func mapArg(args sampvalue.List, i int) (*sampvalue.Map, error) {
	if i >= len(args) {
		return sampvalue.NewMap(), nil
	}
	m, ok := args[i].(*sampvalue.Map)
	if !ok {
		return nil, argError(i, "a mapping")
	}
	return m, nil
}

func messageArg(args sampvalue.List, i int) (hub.Message, error) {
	if i >= len(args) {
		return hub.Message{}, argError(i, "a message mapping")
	}
	return hub.DecodeMessage(args[i])
}

func faultFor(err error) error {
	if _, ok := err.(*transport.RemoteFailure); ok {
		return err
	}
	return &transport.RemoteFailure{Code: transport.CodeGenericFault, Message: err.Error()}
}

func ok() (sampvalue.Value, error) { return sampvalue.String(""), nil }

// buildDispatcher wires every samp.hub.* method the Standard Profile
// accepts into p.hub, per the public contract table in spec §4.4.
func (p *Profile) buildDispatcher() *transport.Dispatcher {
	d := transport.NewDispatcher()

	d.Register("samp.hub.register", func(args sampvalue.List) (sampvalue.Value, error) {
		secret, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if subtle.ConstantTimeCompare([]byte(secret), []byte(p.secret)) != 1 {
			return nil, faultFor(&hub.AuthFailure{})
		}
		id, privKey, err := p.hub.Register("")
		if err != nil {
			return nil, faultFor(err)
		}
		result := sampvalue.NewMap()
		result.Set("samp.hub-id", sampvalue.String(hub.HubClientID))
		result.Set("samp.self-id", sampvalue.String(id))
		result.Set("samp.private-key", sampvalue.String(privKey))
		return result, nil
	})

	d.Register("samp.hub.declareCallback", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		endpoint, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		deliverer := &callbackDeliverer{caller: p.caller, endpoint: endpoint, log: p.log}
		if err := p.hub.DeclareCallback(privKey, deliverer); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	d.Register("samp.hub.unregister", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if err := p.hub.Unregister(privKey); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	d.Register("samp.hub.declareMetadata", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		meta, err := mapArg(args, 1)
		if err != nil {
			return nil, err
		}
		if err := p.hub.DeclareMetadata(privKey, meta); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	d.Register("samp.hub.getMetadata", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		target, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		meta, err := p.hub.GetMetadata(privKey, target)
		if err != nil {
			return nil, faultFor(err)
		}
		return meta, nil
	})

	d.Register("samp.hub.declareSubscriptions", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		subs, err := mapArg(args, 1)
		if err != nil {
			return nil, err
		}
		if err := p.hub.DeclareSubscriptions(privKey, subs); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	d.Register("samp.hub.getSubscriptions", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		target, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		subs, err := p.hub.GetSubscriptions(privKey, target)
		if err != nil {
			return nil, faultFor(err)
		}
		return subs, nil
	})

	d.Register("samp.hub.getRegisteredClients", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		ids, err := p.hub.GetRegisteredClients(privKey)
		if err != nil {
			return nil, faultFor(err)
		}
		out := make(sampvalue.List, len(ids))
		for i, id := range ids {
			out[i] = sampvalue.String(id)
		}
		return out, nil
	})

	d.Register("samp.hub.getSubscribedClients", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		mtype, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		subs, err := p.hub.GetSubscribedClients(privKey, mtype)
		if err != nil {
			return nil, faultFor(err)
		}
		return subs, nil
	})

	d.Register("samp.hub.notify", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		recipient, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		msg, err := messageArg(args, 2)
		if err != nil {
			return nil, err
		}
		if err := p.hub.Notify(privKey, recipient, msg); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	d.Register("samp.hub.notifyAll", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		msg, err := messageArg(args, 1)
		if err != nil {
			return nil, err
		}
		ids, err := p.hub.NotifyAll(privKey, msg)
		if err != nil {
			return nil, faultFor(err)
		}
		out := make(sampvalue.List, len(ids))
		for i, id := range ids {
			out[i] = sampvalue.String(id)
		}
		return out, nil
	})

	d.Register("samp.hub.call", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		recipient, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		tag, err := stringArg(args, 2)
		if err != nil {
			return nil, err
		}
		msg, err := messageArg(args, 3)
		if err != nil {
			return nil, err
		}
		msgID, err := p.hub.Call(privKey, recipient, tag, msg)
		if err != nil {
			return nil, faultFor(err)
		}
		return sampvalue.String(msgID), nil
	})

	d.Register("samp.hub.callAll", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		tag, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		msg, err := messageArg(args, 2)
		if err != nil {
			return nil, err
		}
		result, err := p.hub.CallAll(privKey, tag, msg)
		if err != nil {
			return nil, faultFor(err)
		}
		return result, nil
	})

	d.Register("samp.hub.callAndWait", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		recipient, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		msg, err := messageArg(args, 2)
		if err != nil {
			return nil, err
		}
		timeoutStr, err := stringArg(args, 3)
		if err != nil {
			return nil, err
		}
		seconds, convErr := strconv.Atoi(timeoutStr)
		if convErr != nil {
			return nil, argError(3, "a decimal seconds string")
		}
		resp, err := p.hub.CallAndWait(privKey, recipient, msg, time.Duration(seconds)*time.Second)
		if err != nil {
			return nil, faultFor(err)
		}
		return resp, nil
	})

	d.Register("samp.hub.reply", func(args sampvalue.List) (sampvalue.Value, error) {
		privKey, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		msgID, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		response, err := mapArg(args, 2)
		if err != nil {
			return nil, err
		}
		if err := p.hub.Reply(privKey, msgID, response); err != nil {
			return nil, faultFor(err)
		}
		return ok()
	})

	return d
}
