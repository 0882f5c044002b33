package router

import (
	"fmt"
	"net/http"
	"strings"
)

func normalizePath(controller *RESTController, relativePath string) string {
	path := controller.mountPoint

	if relativePath != "" {
		path = path + "/" + relativePath
	}

	if path[0] != '/' {
		path = "/" + path
	}

	path = strings.ReplaceAll(path, "//", "/")

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	return path
}

func keyForPathAndMethod(path, method string) string {
	return fmt.Sprintf("%s-%s", method, path)
}

func (routerService *RouterService) bindHandlerToController(controller *RESTController, path, method string) {
	key := keyForPathAndMethod(path, method)

	if other, found := routerService.handlerToControllerMap[key]; found {
		panic(fmt.Sprintf("A handler is already registered for %s '%s' by controller '%s'", method, path, other.name))
	}

	routerService.handlerToControllerMap[key] = controller
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result. This typically indicates a bug in a handler's implementation.").ToJSON())
			return
		}

		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func createPageHandler(page PageFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := page(c)

		if result == nil {
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}

		c.HTML(result.StatusCode, result.Template, result.Data)
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	// The version is part of the mount point so routes never depend on registration order.
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+version+"/"+mountPoint, "//", "/"),
		version:    version,
		prepare:    prepare,
	}
}

func (routerService *RouterService) register(controller *RESTController, method, path string, handlers ...MiddlewareFunc) {
	controller.handlerCount++
	fullPath := normalizePath(controller, path)
	routerService.bindHandlerToController(controller, fullPath, method)
	routerService.engine.Handle(method, fullPath, handlers...)
	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, http.MethodGet, path, append(middlewares, createHandler(handler))...)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, http.MethodPost, path, append(middlewares, createHandler(handler))...)
}

// AddPageHandler registers an HTML-rendering handler. The router must have templates loaded.
func (routerService *RouterService) AddPageHandler(controller *RESTController, method, path string, page PageFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, method, path, append(middlewares, createPageHandler(page))...)
}
