// Package optimistic provides a generic membership set whose mutations are
// applied locally first and rolled back when the remote refuses them.
//
// The wishlist is the first user; any add/remove/list collection with the
// same shape can reuse it:
//
//	set := optimistic.New[string](remote, optimistic.WithName[string]("wishlist"))
//	set.Load(ctx)
//	res := set.Toggle(ctx, "course-1")
//	if res.Err != nil {
//		// already rolled back; surface res.Err to the user
//	}
package optimistic
