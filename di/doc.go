// Package di provides the token-resolution container behind the zenject
// module loader.
//
// The container is a key-value store mapping a [Token] to a registration
// (constructor, instance, or alias) and caching singleton instances. It is
// deliberately narrow: register, resolve, check, and introspect. Everything
// above it (provider descriptors, module graphs, lifecycle) lives in the
// injector and lifecycle packages. Any compliant [Container] implementation
// can be swapped in.
//
// # Registration
//
//	c := di.NewContainer()
//	c.RegisterSingleton(di.NewToken("clock"), func(c di.Container) (any, error) {
//	    return NewClock(), nil
//	})
//
// # Resolution
//
//	clock := di.MustResolve[*Clock](c, di.NewToken("clock"))
package di
