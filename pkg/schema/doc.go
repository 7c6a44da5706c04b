// Package schema defines the entity metadata consumed by schemagraph.
//
// An [EntityDescribe] is the metadata document for one entity (an sObject in
// Salesforce terms): its fields and the child relationships that point at it.
// Describes are fetched from a remote metadata API and treated as immutable
// once fetched.
//
// # Classification
//
// Entities are classified as standard or custom by name ([IsStandard]): names
// carrying a namespace or custom suffix ("__c", "__x", or any "__" segment)
// are custom. Relationship fields are classified per field ([ClassifyField]):
//
//   - more than one referenced entity: [Polymorphic]
//   - cascade delete: [MasterDetail]
//   - otherwise: [Lookup]
//
// Child relationships never classify as polymorphic ([ClassifyChild]).
//
// # Relationship Rows
//
// [ParentRelationships] and [ChildRelationships] flatten a describe into
// table rows for display, one row per (field, referenced entity).
package schema
